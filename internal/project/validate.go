package project

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	projectNamePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)
)

// validatorInstance configures and returns the shared validator used for
// registration input.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("project_name", func(fl validator.FieldLevel) bool {
			return projectNamePattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// ValidateName checks a project name against the registry naming rules.
// Names are immutable after creation; renaming would orphan the key.
func ValidateName(name string) error {
	if !projectNamePattern.MatchString(name) {
		return fmt.Errorf(
			"invalid project name %q: must start with a lowercase letter and contain only lowercase letters, numbers, and hyphens",
			name,
		)
	}
	return nil
}
