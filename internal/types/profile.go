package types

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// ProgramCategory is the closed set of program types an applicant can target.
type ProgramCategory string

// Program categories accepted by the pipeline.
const (
	ProgramUndergrad      ProgramCategory = "Undergrad"
	ProgramGraduate       ProgramCategory = "Graduate"
	ProgramResearch       ProgramCategory = "Research"
	ProgramCommunityGrant ProgramCategory = "Community Grant"
	ProgramPhD            ProgramCategory = "PhD"
)

// ProgramCategories lists every accepted category.
func ProgramCategories() []ProgramCategory {
	return []ProgramCategory{
		ProgramUndergrad,
		ProgramGraduate,
		ProgramResearch,
		ProgramCommunityGrant,
		ProgramPhD,
	}
}

// ApplicantProfile is the immutable input record for one pipeline run.
type ApplicantProfile struct {
	ProgramName     string          `json:"scholarship_name" yaml:"scholarship_name" validate:"required,notblank,max=200"`
	ProgramCategory ProgramCategory `json:"program_type" yaml:"program_type" validate:"required,programcategory"`
	Goal            string          `json:"goal_one_liner" yaml:"goal_one_liner" validate:"required,notblank,min=10,max=500"`
	ResumeBullets   []string        `json:"resume_points" yaml:"resume_points" validate:"required,min=2,max=30,dive,notblank,max=1000"`
}

// FieldError describes one input contract violation.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ProfileError is returned when an ApplicantProfile violates its input contract.
type ProfileError struct {
	Fields []FieldError
}

func (e *ProfileError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "invalid profile: " + strings.Join(msgs, "; ")
}

var (
	profileValidator     *validator.Validate
	profileValidatorOnce sync.Once
)

func getProfileValidator() *validator.Validate {
	profileValidatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		// Report JSON field names so errors line up with the request body.
		v.RegisterTagNameFunc(jsonTagName)
		_ = v.RegisterValidation("notblank", validators.NotBlank)
		_ = v.RegisterValidation("programcategory", func(fl validator.FieldLevel) bool {
			return ProgramCategory(fl.Field().String()).Valid()
		})
		profileValidator = v
	})
	return profileValidator
}

// Valid reports whether c is an accepted program category.
func (c ProgramCategory) Valid() bool {
	for _, known := range ProgramCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// Validate checks the profile against its input contract and returns a *ProfileError
// listing every violated field.
func (p *ApplicantProfile) Validate() error {
	err := getProfileValidator().Struct(p)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	perr := &ProfileError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		perr.Fields = append(perr.Fields, FieldError{
			Field:   trimNamespace(fe.Namespace()),
			Rule:    fe.Tag(),
			Message: ruleMessage(fe),
		})
	}
	return perr
}

func jsonTagName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// trimNamespace drops the struct name prefix: "ApplicantProfile.resume_points[1]" -> "resume_points[1]".
func trimNamespace(ns string) string {
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "notblank":
		return "cannot be blank"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s items", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at most %s items", fe.Param())
		}
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "programcategory":
		names := make([]string, 0, len(ProgramCategories()))
		for _, c := range ProgramCategories() {
			names = append(names, string(c))
		}
		return "must be one of: " + strings.Join(names, ", ")
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}
