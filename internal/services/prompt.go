package services

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/tbourn/pet-calendar-backend/internal/domain"
)

// MaxPetNameRunes caps stored pet names.
const MaxPetNameRunes = 64

const promptTemplate = "A charming, high-quality digital illustration of a %s named %s %s. " +
	"The %s is the main subject, depicted in a warm and playful illustration style suitable for a wall calendar. " +
	"Keep the pet's appearance consistent and adorable."

// BuildPrompt composes the image edit prompt for one month.
func BuildPrompt(petName string, petType domain.PetType, scene string) string {
	return fmt.Sprintf(promptTemplate, petType, petName, scene, petType)
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)

// normalizePetName trims, collapses whitespace and NFC-normalizes a name so
// visually identical names are stored identically.
func normalizePetName(s string) string {
	s = whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
	return norm.NFC.String(s)
}

func petNameTooLong(s string) bool {
	return utf8.RuneCountInString(s) > MaxPetNameRunes
}
