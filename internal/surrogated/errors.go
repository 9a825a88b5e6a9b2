package surrogated

import "errors"

var (
	ErrStudyNotFound  = errors.New("study not found")
	ErrStudyExists    = errors.New("study already exists")
	ErrStudyTerminal  = errors.New("study is terminal")
	ErrStudyIDMissing = errors.New("study_id is required")
	ErrInvalidStudyID = errors.New("invalid study id")
	ErrConfigMissing  = errors.New("study configuration is required")
)

const (
	defaultListLimit = 50
	maxListLimit     = 1000
)
