package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурсы не найдены
	ErrTournamentNotFound        = errors.New("tournament not found")
	ErrCompetitorNotInTournament = errors.New("competitor is not in any tournament")
	ErrMatchNotFound             = errors.New("no current-round match for the given competitors")
	ErrRatingNotFound            = errors.New("rating record not found")
	ErrTemplateNotFound          = errors.New("tournament template not found")

	// Ошибки валидации и бизнес-правил
	ErrTournamentNameRequired    = errors.New("tournament name is required")
	ErrTournamentInvalidCapacity = errors.New("tournament max participants must be at least 2")
	ErrCompetitorIDRequired      = errors.New("competitor id is required")
	ErrCompetitorNotEligible     = errors.New("competitor does not meet the tournament requirements")
	ErrEntryFeeNotPaid           = errors.New("entry fee could not be withdrawn")
	ErrTemplateInvalidPeriod     = errors.New("template period must be positive")

	// Ошибки конфликтов
	ErrTournamentNameConflict = errors.New("tournament name already exists")
	ErrTemplateNameConflict   = errors.New("template name already exists")
	ErrAlreadyInTournament    = errors.New("competitor is already in a tournament")
	ErrAlreadyRegistered      = errors.New("competitor is already registered in this tournament")

	// Конфликты состояния
	ErrTournamentNotWaiting     = errors.New("tournament registration is not open")
	ErrTournamentFull           = errors.New("tournament registration is full")
	ErrTournamentEnded          = errors.New("tournament has already ended")
	ErrTournamentAlreadyStarted = errors.New("tournament has already started")
	ErrNotEnoughParticipants    = errors.New("at least two participants are required to start")
	ErrMatchAlreadyResolved     = errors.New("match has already been resolved")
	ErrNoScheduledMatch         = errors.New("no scheduled match awaiting readiness")
	ErrAuthInvalidCredentials   = errors.New("invalid credentials")
)
