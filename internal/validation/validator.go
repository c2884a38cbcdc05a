// CatFeeder - Remote Control Service for an Embedded Pet Feeder
// Copyright 2026 Jon Kimbel (JonKimbel)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JonKimbel/CatFeeder

// Package validation provides struct validation using go-playground/validator
// v10. It exposes a thread-safe singleton validator instance, so struct
// metadata is parsed and cached once.
//
// Example usage:
//
//	type EditRequest struct {
//	    Scoops int `validate:"min=1,max=20"`
//	}
//
//	if err := validation.ValidateStruct(&req); err != nil {
//	    // err lists every failing field
//	}
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// singleton validator instance
var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError represents a single field validation failure.
type FieldError struct {
	field   string
	tag     string
	param   string
	message string
}

// Field returns the struct field name that failed validation.
func (e *FieldError) Field() string { return e.field }

// Tag returns the validation tag that failed.
func (e *FieldError) Tag() string { return e.tag }

// Param returns the parameter for the validation tag (e.g. "20" for "max=20").
func (e *FieldError) Param() string { return e.param }

// Error returns a human-readable error message.
func (e *FieldError) Error() string { return e.message }

// StructError is a collection of field validation failures for one struct.
type StructError struct {
	errors []FieldError
}

// Errors returns the individual field errors.
func (ve *StructError) Errors() []FieldError { return ve.errors }

// Error implements the error interface, joining all field messages.
func (ve *StructError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	messages := make([]string, 0, len(ve.errors))
	for i := range ve.errors {
		messages = append(messages, ve.errors[i].Error())
	}
	return strings.Join(messages, "; ")
}

// instance returns the singleton validator, building it on first use.
func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateStruct validates a struct using its `validate` tags.
// Returns nil if valid, or a *StructError describing every failing field.
func ValidateStruct(s interface{}) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return fmt.Errorf("validation internal error: %w", err)
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	structErr := &StructError{}
	for _, fe := range fieldErrs {
		structErr.errors = append(structErr.errors, FieldError{
			field:   fe.Field(),
			tag:     fe.Tag(),
			param:   fe.Param(),
			message: messageFor(fe),
		})
	}
	return structErr
}

// messageFor builds a readable message for a single field failure.
func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "http_url":
		return fmt.Sprintf("%s must be a valid HTTP URL", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
