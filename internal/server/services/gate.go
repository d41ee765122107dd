package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server/auth"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/repomanager"
)

// Status is the terminal state of a single gate evaluation.
type Status int

const (
	// StatusUnauthenticated: no principal; protected routes reject later.
	StatusUnauthenticated Status = iota
	// StatusAuthenticated: Outcome.Principal is set.
	StatusAuthenticated
	// StatusRejected: the request must be refused now, see Outcome.Reason.
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusRejected:
		return "rejected"
	default:
		return "unauthenticated"
	}
}

// Outcome is the result of Gate.Evaluate. Reason explains why no principal
// was attached and is nil for StatusAuthenticated or a missing header.
type Outcome struct {
	Status    Status
	Principal *models.Principal
	Reason    error
}

func unauthenticated(reason error) Outcome {
	return Outcome{Status: StatusUnauthenticated, Reason: reason}
}

func rejected(reason error) Outcome {
	return Outcome{Status: StatusRejected, Reason: reason}
}

// Gate decides, once per request, whether the presented token yields a
// principal. It holds no per-request state and is safe for concurrent use.
type Gate struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	codec       *auth.Codec
	log         logging.Logger
}

func NewGate(db *sql.DB, m repomanager.RepositoryManager, codec *auth.Codec, log logging.Logger) *Gate {
	return &Gate{db: db, repomanager: m, codec: codec, log: log}
}

// Evaluate inspects the raw Authorization value. Token problems degrade to
// StatusUnauthenticated; a revoked token or an unreachable store yields
// StatusRejected. The only error returned is one matching
// common.ErrUserNotFound, for a well-signed token whose subject has no user.
func (g *Gate) Evaluate(ctx context.Context, header string) (Outcome, error) {
	if header == "" {
		return unauthenticated(nil), nil
	}

	token := auth.ResolveHeader(header)
	claims, err := g.codec.Parse(token)
	if err != nil {
		g.log.Debug(ctx, "token rejected", "reason", err)
		return unauthenticated(err), nil
	}
	if g.codec.Expired(claims) {
		g.log.Debug(ctx, "token expired", "sub", claims.Subject, "exp", claims.ExpiresAt)
		return unauthenticated(common.ErrTokenExpired), nil
	}

	user, err := g.repomanager.Users(g.db).FindBySubject(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			return Outcome{}, fmt.Errorf("%w: %s", common.ErrUserNotFound, claims.Subject)
		}
		g.log.Error(ctx, "user lookup failed", "error", err)
		return rejected(err), nil
	}

	revoked, err := g.repomanager.Revocations(g.db).Exists(ctx, claims.TokenID, claims.Subject)
	if err != nil {
		g.log.Error(ctx, "revocation lookup failed", "error", err)
		return rejected(err), nil
	}
	if revoked {
		g.log.Info(ctx, "revoked token presented", "sub", claims.Subject, "jti", claims.TokenID)
		return rejected(common.ErrTokenRevoked), nil
	}

	if err := g.codec.Check(token, claims.Subject); err != nil {
		g.log.Debug(ctx, "token failed validation", "reason", err)
		return unauthenticated(err), nil
	}

	return Outcome{
		Status: StatusAuthenticated,
		Principal: &models.Principal{
			Subject: claims.Subject,
			TokenID: claims.TokenID,
			User:    user,
		},
	}, nil
}
