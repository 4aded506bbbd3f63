package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/automate/orgs-server/repos"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"
)

const (
	codeNamespaceNotFound = 26
	codeNamespaceExists   = 48
)

// mapError translates driver errors into the repos sentinels, keeping the original in the chain.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return repos.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", repos.ErrDuplicate, err)
	case isUnavailable(err):
		return fmt.Errorf("%w: %v", repos.ErrUnavailable, err)
	default:
		return err
	}
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, mongo.ErrClientDisconnected) {
		return true
	}
	var selection topology.ServerSelectionError
	return errors.As(err, &selection)
}

func hasCode(err error, code int) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.HasErrorCode(code)
	}
	return false
}
