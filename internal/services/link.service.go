package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type LinkPurpose string

const (
	LinkPurposeScheduleService LinkPurpose = "schedule_service"
	LinkPurposeOptOut          LinkPurpose = "reminder_opt_out"

	DefaultLinkTTL = 30 * 24 * time.Hour
	linkIssuer     = "warrantyhub"
)

var ErrInvalidLinkToken = errors.New("invalid or expired link token")

type linkClaims struct {
	MachineID string      `json:"machineId"`
	Purpose   LinkPurpose `json:"purpose"`
	jwt.RegisteredClaims
}

// LinkService signs the customer links embedded in reminder emails.
type LinkService struct {
	baseURL string
	secret  []byte
	ttl     time.Duration
	Now     Clock
	log     logger.Logger
}

func NewLinkService(baseURL string, secret string) *LinkService {
	log := logger.New("linkService")

	key := []byte(secret)
	if len(key) == 0 {
		log.Function("NewLinkService").
			Warn("no signing secret configured, links will not survive a restart")
		key = make([]byte, 32)
		_, _ = rand.Read(key)
	}

	return &LinkService{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  key,
		ttl:     DefaultLinkTTL,
		Now:     time.Now,
		log:     log,
	}
}

func (s *LinkService) Sign(machineID uuid.UUID, purpose LinkPurpose) (string, error) {
	now := s.Now()
	claims := linkClaims{
		MachineID: machineID.String(),
		Purpose:   purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    linkIssuer,
			Subject:   machineID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", s.log.Function("Sign").Err("failed to sign link", err, "machineID", machineID)
	}
	return token, nil
}

func (s *LinkService) ScheduleServiceURL(machineID uuid.UUID) (string, error) {
	token, err := s.Sign(machineID, LinkPurposeScheduleService)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"%s/machines/%s/schedule-service?token=%s",
		s.baseURL,
		machineID,
		url.QueryEscape(token),
	), nil
}

func (s *LinkService) OptOutURL(machineID uuid.UUID) (string, error) {
	token, err := s.Sign(machineID, LinkPurposeOptOut)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/api/reminders/opt-out?token=%s", s.baseURL, url.QueryEscape(token)), nil
}

// ParseToken verifies the signature, expiry and purpose and returns the
// machine the link was issued for.
func (s *LinkService) ParseToken(token string, purpose LinkPurpose) (uuid.UUID, error) {
	claims := &linkClaims{}
	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(linkIssuer),
		jwt.WithTimeFunc(s.Now),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", ErrInvalidLinkToken, err)
	}

	if claims.Purpose != purpose {
		return uuid.Nil, fmt.Errorf("%w: wrong purpose %q", ErrInvalidLinkToken, claims.Purpose)
	}

	machineID, err := uuid.Parse(claims.MachineID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", ErrInvalidLinkToken, err)
	}
	return machineID, nil
}
