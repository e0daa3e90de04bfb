package api

import (
	"errors"

	"github.com/xraph/forge"

	"github.com/classboard/palisade"
)

// mapError maps domain errors to Forge HTTP errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return forge.NotFound(err.Error())
	}
	if errors.Is(err, palisade.ErrBlockExists) || errors.Is(err, palisade.ErrInvalidGrant) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, palisade.ErrRelationMembers) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, palisade.ErrAccessDenied) {
		return forge.Forbidden(err.Error())
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, palisade.ErrBlockNotFound) ||
		errors.Is(err, palisade.ErrGrantNotFound)
}

func defaultLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}
