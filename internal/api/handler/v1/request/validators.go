package request

import (
	"errors"
	"strings"

	"github.com/dlclark/regexp2"
	validation "github.com/go-ozzo/ozzo-validation"
)

var (
	// Venezuelan cédula of a natural person, e.g. V-12345678.
	naturalPersonIDPattern = regexp2.MustCompile(`^[VEP]-\d{7,}$`, regexp2.None)

	// Mobile numbers written as (0414) 123-4567.
	phonePattern = regexp2.MustCompile(`^\(0(412|422|414|424|416|426)\)\s\d{3}-\d{4}$`, regexp2.None)

	// Two or more words of letters, accents allowed.
	fullNamePattern = regexp2.MustCompile(`^(?=.{3,100}$)\p{L}+(?:['\-]\p{L}+)*(?:\s+\p{L}+(?:['\-]\p{L}+)*)+$`, regexp2.None)
)

var (
	errInvalidIdentification = errors.New("must look like V-12345678")
	errInvalidPhone          = errors.New("must look like (0414) 123-4567")
	errInvalidFullName       = errors.New("must contain at least a first and a last name")
)

// matchRule adapts a regexp2 pattern to ozzo-validation. Empty values pass
// so that Required decides about them.
func matchRule(re *regexp2.Regexp, err error) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, _ := value.(string)
		if strings.TrimSpace(s) == "" {
			return nil
		}

		ok, matchErr := re.MatchString(s)
		if matchErr != nil || !ok {
			return err
		}

		return nil
	})
}

var (
	naturalPersonID = matchRule(naturalPersonIDPattern, errInvalidIdentification)
	venezuelanPhone = matchRule(phonePattern, errInvalidPhone)
	fullName        = matchRule(fullNamePattern, errInvalidFullName)
)
