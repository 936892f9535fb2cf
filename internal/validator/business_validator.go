package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/SaidjonAlixon/testblok/internal/models"
)

// Validator handles struct and business rule validation
type Validator struct {
	validate *validator.Validate
}

// ValidationError represents a single field validation failure
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// New creates a validator with all custom rules registered
func New() *Validator {
	validate := validator.New()

	v := &Validator{validate: validate}
	v.registerBusinessRules()

	return v
}

// Validate validates a struct against its tags
func (v *Validator) Validate(s interface{}) ValidationErrors {
	var errors ValidationErrors

	err := v.validate.Struct(s)
	if err != nil {
		for _, err := range err.(validator.ValidationErrors) {
			errors = append(errors, ValidationError{
				Field:   err.Field(),
				Message: v.getErrorMessage(err),
				Value:   err.Value(),
				Rule:    err.Tag(),
			})
		}
	}

	return errors
}

// ValidateDirectionCreate validates direction creation business rules
func (v *Validator) ValidateDirectionCreate(req *DirectionCreateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, v.Validate(req)...)

	// Paid directions must carry a positive price
	if !req.IsFree && req.Price <= 0 {
		errors = append(errors, ValidationError{
			Field:   "price",
			Message: "must be greater than 0 for paid directions",
			Value:   req.Price,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateDirectionUpdate validates direction update business rules
func (v *Validator) ValidateDirectionUpdate(req *DirectionUpdateRequest, existing *models.Direction) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, v.Validate(req)...)

	isFree := existing.IsFree
	if req.IsFree != nil {
		isFree = *req.IsFree
	}
	price := existing.Price
	if req.Price != nil {
		price = *req.Price
	}
	if !isFree && price <= 0 {
		errors = append(errors, ValidationError{
			Field:   "price",
			Message: "must be greater than 0 for paid directions",
			Value:   price,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateQuestionCreate validates question creation business rules
func (v *Validator) ValidateQuestionCreate(req *QuestionCreateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, v.Validate(req)...)
	errors = append(errors, v.validateQuestionOptions(&req.Options)...)

	return errors
}

// ValidateQuestionUpdate validates question update business rules
func (v *Validator) ValidateQuestionUpdate(req *QuestionUpdateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, v.Validate(req)...)
	if req.Options != nil {
		errors = append(errors, v.validateQuestionOptions(req.Options)...)
	}

	return errors
}

// validateQuestionOptions requires all four answer texts to be present
func (v *Validator) validateQuestionOptions(opts *QuestionOptionsRequest) ValidationErrors {
	var errors ValidationErrors

	options := map[string]string{"A": opts.A, "B": opts.B, "C": opts.C, "D": opts.D}
	for _, label := range []string{"A", "B", "C", "D"} {
		if strings.TrimSpace(options[label]) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("options.%s", label),
				Message: "option text cannot be empty",
				Value:   options[label],
				Rule:    "business_logic",
			})
		}
	}

	return errors
}

// registerBusinessRules registers custom rule validators
func (v *Validator) registerBusinessRules() {
	// Full name validation (2-120 characters)
	v.validate.RegisterValidation("person_name", func(fl validator.FieldLevel) bool {
		name := strings.TrimSpace(fl.Field().String())
		return len(name) >= 2 && len(name) <= 120
	})

	// Direction name validation (1-200 characters)
	v.validate.RegisterValidation("direction_name", func(fl validator.FieldLevel) bool {
		name := strings.TrimSpace(fl.Field().String())
		return len(name) >= 1 && len(name) <= 200
	})

	// Answer label validation (A-D)
	v.validate.RegisterValidation("answer_label", func(fl validator.FieldLevel) bool {
		label := models.AnswerLabel(fl.Field().String())
		for _, valid := range models.Labels {
			if label == valid {
				return true
			}
		}
		return false
	})

	// Subject type validation
	v.validate.RegisterValidation("subject_type", func(fl validator.FieldLevel) bool {
		t := models.SubjectType(fl.Field().String())
		return t == models.SubjectMain || t == models.SubjectMandatory
	})

	// Ticket priority validation
	v.validate.RegisterValidation("ticket_priority", func(fl validator.FieldLevel) bool {
		p := models.TicketPriority(fl.Field().String())
		switch p {
		case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
			return true
		}
		return false
	})

	// Notification type validation
	v.validate.RegisterValidation("notification_type", func(fl validator.FieldLevel) bool {
		t := models.NotificationType(fl.Field().String())
		switch t {
		case models.NotificationTestAvailable, models.NotificationResultReady,
			models.NotificationAchievement, models.NotificationWarning, models.NotificationInfo:
			return true
		}
		return false
	})
}

// getErrorMessage returns user-friendly error messages
func (v *Validator) getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", err.Param())
	case "person_name":
		return "must be between 2 and 120 characters"
	case "direction_name":
		return "must be between 1 and 200 characters"
	case "answer_label":
		return "must be one of A, B, C, D"
	case "subject_type":
		return "must be main or mandatory"
	case "ticket_priority":
		return "must be low, medium, or high"
	case "notification_type":
		return "must be a valid notification type"
	default:
		return fmt.Sprintf("validation failed for rule '%s'", err.Tag())
	}
}
