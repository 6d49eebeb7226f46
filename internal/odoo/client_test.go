package odoo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"contactsync/internal/odoo/odootest"
	"contactsync/internal/platform/config"
)

type ClientSuite struct {
	suite.Suite
	fake   *odootest.Server
	server *httptest.Server
	creds  Credentials
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.fake = &odootest.Server{UID: 7}
	s.server = httptest.NewServer(s.fake)
	s.creds = Credentials{Database: "odoo", Username: "admin", Secret: "key"}
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
}

func (s *ClientSuite) client(pageSize int) *Client {
	return New(config.Odoo{
		URL:      s.server.URL,
		PageSize: pageSize,
		Timeout:  5 * time.Second,
	})
}

func (s *ClientSuite) session() Session {
	return Session{UID: 7, Credentials: s.creds}
}

func (s *ClientSuite) TestAuthenticate() {
	s.Run("returns the uid on success", func() {
		sess, err := s.client(0).Authenticate(context.Background(), s.creds)
		s.Require().NoError(err)
		s.Equal(int64(7), sess.UID)
		s.Equal(s.creds, sess.Credentials)

		calls := s.fake.Calls()
		s.Require().Len(calls, 1)
		s.Equal("common", calls[0].Service)
		s.Equal("authenticate", calls[0].Method)
		s.Require().Len(calls[0].Args, 4)
		s.JSONEq(`"odoo"`, string(calls[0].Args[0]))
		s.JSONEq(`"admin"`, string(calls[0].Args[1]))
		s.JSONEq(`"key"`, string(calls[0].Args[2]))
	})

	s.Run("false uid is an auth error", func() {
		s.fake.UID = false
		_, err := s.client(0).Authenticate(context.Background(), s.creds)
		s.Require().Error(err)
		s.ErrorIs(err, ErrAuth)
		s.NotErrorIs(err, ErrRemote)
	})

	s.Run("rpc error payload is an auth error carrying the code", func() {
		s.fake.Error = &RPCError{Code: 200, Message: "Odoo Server Error"}
		defer func() { s.fake.Error = nil }()

		_, err := s.client(0).Authenticate(context.Background(), s.creds)
		s.Require().Error(err)
		s.ErrorIs(err, ErrAuth)

		var oerr *Error
		s.Require().True(errors.As(err, &oerr))
		s.Equal(200, oerr.Code)
		s.Equal("common.authenticate", oerr.Op)
	})
}

func (s *ClientSuite) TestFetchChangedSince() {
	s.fake.Partners = []map[string]any{
		{"id": 1, "name": "A", "email": "a@x.io", "write_date": "2024-01-01 10:00:00"},
		{"id": 2, "name": "B", "email": false, "write_date": "2024-01-01 11:00:00"},
		{"id": 3, "name": "C", "email": "c@x.io", "write_date": "2024-01-01 12:00:00"},
		{"id": 4, "name": false, "email": nil, "write_date": "2024-01-01 13:00:00"},
		{"id": 5, "name": "E", "email": "e@x.io", "write_date": "2024-01-01 14:00:00"},
	}

	s.Run("pages until a short page", func() {
		partners, err := s.client(2).FetchChangedSince(context.Background(), s.session(), nil)
		s.Require().NoError(err)
		s.Require().Len(partners, 5)
		s.Equal(int64(1), partners[0].ID)
		s.Equal(int64(5), partners[4].ID)
		s.Len(s.fake.Calls(), 3)
	})

	s.Run("later pages start after the last row of the previous page", func() {
		s.fake.Reset()
		since := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
		_, err := s.client(2).FetchChangedSince(context.Background(), s.session(), &since)
		s.Require().NoError(err)

		calls := s.fake.Calls()
		s.Require().Len(calls, 3)
		first, second := calls[0].Kwargs(), calls[1].Kwargs()
		s.Equal([]any{[]any{"write_date", ">=", "2024-01-01 09:00:00"}}, first["domain"])
		s.Equal([]any{
			[]any{"write_date", ">=", "2024-01-01 09:00:00"},
			"|",
			[]any{"write_date", ">", "2024-01-01 11:00:00"},
			"&",
			[]any{"write_date", "=", "2024-01-01 11:00:00"},
			[]any{"id", ">", float64(2)},
		}, second["domain"])
		s.NotContains(second, "offset")
		s.Equal(float64(2), second["limit"])
	})

	s.Run("false and null char fields decode to empty strings", func() {
		partners, err := s.client(0).FetchChangedSince(context.Background(), s.session(), nil)
		s.Require().NoError(err)
		s.Require().Len(partners, 5)
		s.Equal(Text(""), partners[1].Email)
		s.Equal(Text(""), partners[3].Name)
		s.Equal(Text(""), partners[3].Email)
	})
}

func (s *ClientSuite) TestFetchChangedSinceWhileRemoteChanges() {
	s.Run("a partner edited after its page was read does not hide the next row", func() {
		s.fake.Partners = []map[string]any{
			{"id": 1, "name": "A", "email": "a@x.io", "write_date": "2024-01-01 00:00:01"},
			{"id": 2, "name": "B", "email": "b@x.io", "write_date": "2024-01-01 00:00:02"},
			{"id": 3, "name": "C", "email": "c@x.io", "write_date": "2024-01-01 00:00:03"},
			{"id": 4, "name": "D", "email": "d@x.io", "write_date": "2024-01-01 00:00:04"},
		}
		s.fake.AfterSearch = func(n int, partners []map[string]any) {
			if n == 1 {
				partners[0]["name"] = "A2"
				partners[0]["write_date"] = "2024-01-01 00:00:05"
			}
		}
		defer func() { s.fake.AfterSearch = nil }()

		partners, err := s.client(2).FetchChangedSince(context.Background(), s.session(), nil)
		s.Require().NoError(err)

		ids := make([]int64, 0, len(partners))
		for _, p := range partners {
			ids = append(ids, p.ID)
		}
		s.Equal([]int64{2, 3, 4, 1}, ids)
		s.Equal(Text("A2"), partners[3].Name)
		s.Equal(Text("2024-01-01 00:00:05"), partners[3].WriteDate)
	})

	s.Run("rows sharing a write_date are split across pages by id", func() {
		s.fake.Reset()
		s.fake.Partners = []map[string]any{
			{"id": 11, "name": "K", "email": false, "write_date": "2024-02-01 08:00:00"},
			{"id": 10, "name": "J", "email": false, "write_date": "2024-02-01 08:00:00"},
			{"id": 12, "name": "L", "email": false, "write_date": "2024-02-01 08:00:00"},
		}

		partners, err := s.client(2).FetchChangedSince(context.Background(), s.session(), nil)
		s.Require().NoError(err)
		s.Require().Len(partners, 3)
		s.Equal(int64(10), partners[0].ID)
		s.Equal(int64(11), partners[1].ID)
		s.Equal(int64(12), partners[2].ID)
		s.Len(s.fake.Calls(), 2)
	})

	s.Run("an unreadable write_date at a page boundary stops the fetch", func() {
		s.fake.Partners = []map[string]any{
			{"id": 1, "name": "A", "email": false, "write_date": "2024-01-01 00:00:01"},
			{"id": 2, "name": "B", "email": false, "write_date": "soon"},
			{"id": 3, "name": "C", "email": false, "write_date": "zzz"},
		}

		partners, err := s.client(2).FetchChangedSince(context.Background(), s.session(), nil)
		s.Require().Error(err)
		s.Nil(partners)
		s.ErrorIs(err, ErrRemote)
		s.Contains(err.Error(), "partner 2")
	})
}

func (s *ClientSuite) TestFetchChangedSinceRequestShape() {
	s.Run("nil since sends an empty domain", func() {
		_, err := s.client(0).FetchChangedSince(context.Background(), s.session(), nil)
		s.Require().NoError(err)

		calls := s.fake.Calls()
		s.Require().NotEmpty(calls)
		last := calls[len(calls)-1]
		s.Equal("object", last.Service)
		s.Equal("execute_kw", last.Method)
		s.Require().Len(last.Args, 7)
		s.JSONEq(`"res.partner"`, string(last.Args[3]))
		s.JSONEq(`"search_read"`, string(last.Args[4]))

		var kwargs map[string]any
		s.Require().NoError(json.Unmarshal(last.Args[6], &kwargs))
		s.Equal([]any{}, kwargs["domain"])
		s.Equal([]any{"name", "write_date", "email"}, kwargs["fields"])
		s.NotContains(kwargs, "limit")
	})

	s.Run("since becomes an inclusive write_date filter", func() {
		since := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)
		_, err := s.client(0).FetchChangedSince(context.Background(), s.session(), &since)
		s.Require().NoError(err)

		calls := s.fake.Calls()
		last := calls[len(calls)-1]
		var kwargs map[string]any
		s.Require().NoError(json.Unmarshal(last.Args[6], &kwargs))
		s.Equal([]any{[]any{"write_date", ">=", "2024-03-04 05:06:07"}}, kwargs["domain"])
	})

	s.Run("archived partners are requested when configured", func() {
		c := New(config.Odoo{URL: s.server.URL, IncludeArchived: true, Timeout: time.Second})
		_, err := c.FetchChangedSince(context.Background(), s.session(), nil)
		s.Require().NoError(err)

		calls := s.fake.Calls()
		last := calls[len(calls)-1]
		var kwargs map[string]any
		s.Require().NoError(json.Unmarshal(last.Args[6], &kwargs))
		s.Equal(map[string]any{"active_test": false}, kwargs["context"])
	})
}

func (s *ClientSuite) TestFetchChangedSinceFailures() {
	s.Run("rpc error is a remote error", func() {
		s.fake.Error = &RPCError{Code: 200, Message: "Odoo Server Error"}
		defer func() { s.fake.Error = nil }()

		partners, err := s.client(0).FetchChangedSince(context.Background(), s.session(), nil)
		s.Require().Error(err)
		s.Nil(partners)
		s.ErrorIs(err, ErrRemote)
	})

	s.Run("non-2xx status is a remote error", func() {
		s.fake.Status = http.StatusBadGateway
		defer func() { s.fake.Status = 0 }()

		_, err := s.client(0).FetchChangedSince(context.Background(), s.session(), nil)
		s.Require().Error(err)
		s.ErrorIs(err, ErrRemote)
		s.Contains(err.Error(), "502")
	})

	s.Run("unexpected field types are a remote error", func() {
		s.fake.Partners = []map[string]any{{"id": "not-a-number", "name": "X"}}
		_, err := s.client(0).FetchChangedSince(context.Background(), s.session(), nil)
		s.Require().Error(err)
		s.ErrorIs(err, ErrRemote)
	})

	s.Run("unreachable server is a remote error", func() {
		c := New(config.Odoo{URL: "http://127.0.0.1:1", Timeout: time.Second})
		_, err := c.FetchChangedSince(context.Background(), s.session(), nil)
		s.Require().Error(err)
		s.ErrorIs(err, ErrRemote)
	})
}

func TestParseDatetime(t *testing.T) {
	want := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, raw := range []string{
		"2024-01-02 03:04:05",
		"2024-01-02T03:04:05",
		"2024-01-02T03:04:05Z",
		"2024-01-02T04:04:05+01:00",
		"2024-01-02T03:04:05.999Z",
	} {
		got, err := ParseDatetime(raw)
		require.NoError(t, err, raw)
		assert.True(t, want.Equal(got), "%s parsed to %s", raw, got)
	}

	for _, raw := range []string{"", "  ", "yesterday", "2024-13-02 03:04:05"} {
		_, err := ParseDatetime(raw)
		assert.Error(t, err, raw)
	}
}

func TestFormatDatetime(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	assert.Equal(t, "2024-01-02 03:04:05", FormatDatetime(time.Date(2024, 1, 2, 4, 4, 5, 0, loc)))
}

func TestCredentialsLogValueRedactsSecret(t *testing.T) {
	v := Credentials{Database: "odoo", Username: "admin", Secret: "hunter2"}.LogValue()
	assert.NotContains(t, v.String(), "hunter2")
	assert.Contains(t, v.String(), "REDACTED")
}
