package chaos

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

const AbsoluteMaxPages = 100000 // absolute max amount of pages we will request

// ErrTooManyPages is returned when paging never reaches an empty page.
var ErrTooManyPages = errors.New("page limit reached before an empty page")

// Credentials enable an email/password login. A zero value runs anonymously.
type Credentials struct {
	Email    string
	Password string
}

type Fetcher struct {
	client   Client
	pageSize int
	creds    Credentials
	logger   zerolog.Logger
}

func NewFetcher(client Client, pageSize int, creds Credentials, logger zerolog.Logger) *Fetcher {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Fetcher{
		client:   client,
		pageSize: pageSize,
		creds:    creds,
		logger:   logger,
	}
}

// FetchAll pages through /Object/Get until a page comes back empty and
// returns every object in server order. Pages are requested one at a time
// since each page is only defined relative to the sort of the previous one.
func (f *Fetcher) FetchAll(ctx context.Context, query, sort string) ([]Object, error) {
	session, err := f.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	var all []Object
	for page := 0; page < AbsoluteMaxPages; page++ {
		objects, err := f.client.FetchPage(ctx, PageRequest{
			Query:     query,
			Sort:      sort,
			Session:   session,
			PageIndex: page,
			PageSize:  f.pageSize,
		})
		if err != nil {
			return nil, err
		}

		f.logger.Info().
			Int("page", page).
			Int("objects", len(objects)).
			Msgf("Got page indexed %d", page)

		if len(objects) == 0 {
			return all, nil
		}
		all = append(all, objects...)
	}

	return nil, fmt.Errorf("%w: %d pages", ErrTooManyPages, AbsoluteMaxPages)
}

func (f *Fetcher) authenticate(ctx context.Context) (string, error) {
	if f.creds.Email == "" {
		f.logger.Debug().Msg("no CHAOS credentials, fetching anonymously")
		return "", nil
	}

	session, err := f.client.CreateSession(ctx)
	if err != nil {
		return "", err
	}
	if err := f.client.Login(ctx, session, f.creds.Email, f.creds.Password); err != nil {
		return "", err
	}
	f.logger.Info().Str("email", f.creds.Email).Msg("logged in to CHAOS")
	return session, nil
}
