package util

import "errors"

var (
	ErrStorage             = errors.New("local storage failure")
	ErrRemote              = errors.New("remote request failed")
	ErrNoUser              = errors.New("no user identifier available")
	ErrCourseNotFound      = errors.New("course not found")
	ErrSectionNotFound     = errors.New("section not found in course")
	ErrCourseNotPassed     = errors.New("course not passed")
	ErrInvalidScore        = errors.New("score must be between 0 and totalQuestions")
	ErrCertificateNotFound = errors.New("certificate not found")
)
