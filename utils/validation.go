package utils

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MaxCaptionLength = 2200
	MaxCommentLength = 1000
)

var allowedMediaExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".mp4":  true,
}

// ValidationError reports bad user input. Handlers map it to 400.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func invalidf(format string, args ...interface{}) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// ValidationErrorf builds a ValidationError from a format string.
func ValidationErrorf(format string, args ...interface{}) error {
	return invalidf(format, args...)
}

func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func ValidateObjectID(field, value string) (primitive.ObjectID, error) {
	if value == "" {
		return primitive.NilObjectID, invalidf("%s is required", field)
	}
	id, err := primitive.ObjectIDFromHex(value)
	if err != nil {
		return primitive.NilObjectID, invalidf("%s is not a valid id", field)
	}
	return id, nil
}

func ValidateMediaFileName(filename string) error {
	if filename == "" {
		return invalidf("filename cannot be empty")
	}

	if len(filename) > 255 {
		return invalidf("filename too long (max 255 characters)")
	}

	if !utf8.ValidString(filename) {
		return invalidf("filename contains invalid UTF-8 characters")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedMediaExts[ext] {
		return invalidf("unsupported media type: %q", ext)
	}
	return nil
}

func ValidateMediaSize(size, maxSize int64) error {
	if size <= 0 {
		return invalidf("media file is empty")
	}
	if size > maxSize {
		return invalidf("media size %d bytes exceeds maximum allowed size of %d bytes", size, maxSize)
	}
	return nil
}

// ValidateText trims s and checks it is non-empty, valid UTF-8 and at most max runes.
func ValidateText(field, s string, max int) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", invalidf("%s cannot be empty", field)
	}
	if !utf8.ValidString(s) {
		return "", invalidf("%s contains invalid UTF-8 characters", field)
	}
	if utf8.RuneCountInString(s) > max {
		return "", invalidf("%s too long (max %d characters)", field, max)
	}
	return s, nil
}
