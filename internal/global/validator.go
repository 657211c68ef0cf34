package global

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var hhmmPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// InitValidator builds the shared validator and registers the custom tags.
func InitValidator() {
	Validate = validator.New()

	_ = Validate.RegisterValidation("no_xss", validateNoXSS)
	_ = Validate.RegisterValidation("date_ymd", validateDateYMD)
	_ = Validate.RegisterValidation("time_hhmm", validateTimeHHMM)
	_ = Validate.RegisterValidation("objectid", validateObjectID)
}

// validateNoXSS rejects common script injection fragments.
func validateNoXSS(fl validator.FieldLevel) bool {
	value := strings.ToLower(fl.Field().String())
	for _, pattern := range []string{"<script", "javascript:", "onerror=", "onload=", "<iframe", "<object", "<embed"} {
		if strings.Contains(value, pattern) {
			return false
		}
	}
	return true
}

// validateDateYMD accepts calendar dates in YYYY-MM-DD form.
func validateDateYMD(fl validator.FieldLevel) bool {
	_, err := time.Parse("2006-01-02", fl.Field().String())
	return err == nil
}

func validateTimeHHMM(fl validator.FieldLevel) bool {
	return hhmmPattern.MatchString(fl.Field().String())
}

func validateObjectID(fl validator.FieldLevel) bool {
	return primitive.IsValidObjectID(fl.Field().String())
}
