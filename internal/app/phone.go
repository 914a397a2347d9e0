package app

import "regexp"

// US phone formats: "+1 123-456-7890", "(123) 456-7890", "1234567890".
var phoneRe = regexp.MustCompile(`^\+?1?\s?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}$`)

const invalidPhoneMessage = "Enter a valid US phone number (e.g., '+1 123-456-7890', '(123) 456-7890', or '1234567890')."

func validPhone(phone string) bool {
	return phoneRe.MatchString(phone)
}
