package dto

// IntakeRequest is the demographic form posted on the landing page.
type IntakeRequest struct {
	AccessCode string `form:"access_code"`
	Age        string `form:"age"`
	Gender     string `form:"gender"`
}

// EnrollmentResponse describes a newly enrolled participant.
type EnrollmentResponse struct {
	ParticipantID uint   `json:"participant_id"`
	Group         string `json:"group"`
}

// SurveyRequest carries the end-of-study questionnaire.
type SurveyRequest struct {
	Question1 string `form:"question1" validate:"max=4000"`
	Question2 string `form:"question2" validate:"max=4000"`
	Question3 string `form:"question3" validate:"max=4000"`
	Question4 string `form:"question4" validate:"max=4000"`
	Question5 string `form:"question5" validate:"max=4000"`
}

// Answers returns the questionnaire keyed by form field name.
func (r SurveyRequest) Answers() map[string]string {
	return map[string]string{
		"question1": r.Question1,
		"question2": r.Question2,
		"question3": r.Question3,
		"question4": r.Question4,
		"question5": r.Question5,
	}
}
