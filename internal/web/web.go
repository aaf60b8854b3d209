// Package web holds the participant-facing pages.
package web

import (
	"embed"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
)

//go:embed pages/*.html
var pages embed.FS

// Page names served by Page.
const (
	PageIntake    = "index.html"
	PageTaskA     = "taskA.html"
	PageTaskB     = "taskB.html"
	PageSurvey    = "result.html"
	PageCompleted = "completed.html"
)

// FileSystem exposes the embedded pages.
func FileSystem() http.FileSystem {
	return http.FS(pages)
}

// Page sends one embedded page as the response body.
func Page(c *fiber.Ctx, name string) error {
	c.Set(fiber.HeaderCacheControl, "no-store")
	return filesystem.SendFile(c, FileSystem(), "pages/"+name)
}
