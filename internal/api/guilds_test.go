package api

import (
	"context"
	"dbuilder/internal/types"
	"net/http"
	"net/http/httptest"
)

func (s *IntegrationTestSuite) TestGuildMarks() {
	resp := s.call(http.MethodGet, "/guilds/"+testTenant, "", nil)
	s.assertFailureStatus(resp, http.StatusNotFound, "guild not found")

	s.assertMessage(s.call(http.MethodPut, "/guilds/"+testTenant, "", nil), MsgUpdated)
	s.assertMessage(s.call(http.MethodPut, "/guilds/"+testTenant, "", nil), MsgUnchanged)

	var rec map[string]string
	s.decode(s.call(http.MethodGet, "/guilds/"+testTenant, "", nil), http.StatusOK, &rec)
	s.Contains(rec, "date")

	s.assertMessage(s.call(http.MethodDelete, "/guilds/"+testTenant, "", nil), MsgCleared)
	s.assertMessage(s.call(http.MethodDelete, "/guilds/"+testTenant, "", nil), MsgUnchanged)
}

func (s *IntegrationTestSuite) TestCategoriesRequireOwner() {
	resp := s.call(http.MethodGet, "/"+testTenant+"/categories", "", nil)
	s.assertFailureStatus(resp, http.StatusUnauthorized, "missing")

	resp = s.call(http.MethodGet, "/"+testTenant+"/categories", "discord|stranger", nil)
	s.assertFailureStatus(resp, http.StatusForbidden, "does not own")

	var out struct {
		Items []types.Category `json:"items"`
	}
	s.decode(s.call(http.MethodGet, "/"+testTenant+"/categories", testOwner, nil), http.StatusOK, &out)
	s.Equal(s.platform.categories, out.Items)
}

func (s *IntegrationTestSuite) TestCategoryWhitelist() {
	resp := s.call(http.MethodGet, "/"+testTenant+"/categories/cat1", testOwner, nil)
	s.assertFailureStatus(resp, http.StatusNotFound, "whitelist")

	s.assertMessage(s.call(http.MethodPut, "/"+testTenant+"/categories/cat1", testOwner, nil), MsgOK)
	s.assertMessage(s.call(http.MethodPut, "/"+testTenant+"/categories/cat1", testOwner, nil), MsgUnchanged)
	s.assertMessage(s.call(http.MethodGet, "/"+testTenant+"/categories/cat1", testOwner, nil), MsgOK)
	s.assertMessage(s.call(http.MethodDelete, "/"+testTenant+"/categories/cat1", testOwner, nil), MsgOK)
	s.assertMessage(s.call(http.MethodDelete, "/"+testTenant+"/categories/cat1", testOwner, nil), MsgUnchanged)
}

func (s *IntegrationTestSuite) TestUpstreamErrorsAreMapped() {
	s.platform.err = types.Err(types.ErrRateLimited, nil, "slow down")
	resp := s.call(http.MethodGet, "/"+testTenant+"/categories", testOwner, nil)
	s.assertFailureStatus(resp, http.StatusTooManyRequests, "slow down")

	s.platform.err = types.Err(types.ErrNotFound, nil, "no credentials")
	resp = s.call(http.MethodGet, "/users/@me/guilds", testOwner, nil)
	s.assertFailureStatus(resp, http.StatusNotFound, "no credentials")
}

func (s *IntegrationTestSuite) TestListGuilds() {
	var out struct {
		Items []types.Guild `json:"items"`
	}
	s.decode(s.call(http.MethodGet, "/users/@me/guilds", testOwner, nil), http.StatusOK, &out)
	s.Len(out.Items, 2)

	s.decode(s.call(http.MethodGet, "/users/@me/guilds?owned=true&refresh=true", testOwner, nil), http.StatusOK, &out)
	s.Len(out.Items, 1)
	s.Equal([]string{testOwner}, s.platform.invalidated)

	resp := s.call(http.MethodGet, "/users/discord%7Cother/guilds", testOwner, nil)
	s.assertFailureStatus(resp, http.StatusForbidden, "another identity")
}

func (s *IntegrationTestSuite) TestCategoriesClosedWithoutPlatform() {
	s.srv.Close()
	s.handler = NewHandler(s.handler.Names, s.handler.Channels, s.handler.Registry, nil)
	s.srv = httptest.NewServer(s.handler.Router())

	resp := s.call(http.MethodPut, "/"+testTenant+"/categories/999", "", nil)
	s.assertFailureStatus(resp, http.StatusServiceUnavailable, "Service Unavailable")
	resp = s.call(http.MethodPut, "/"+testTenant+"/categories/999", testOwner, nil)
	s.assertFailureStatus(resp, http.StatusServiceUnavailable, "Service Unavailable")
	resp = s.call(http.MethodDelete, "/"+testTenant+"/categories/999", testOwner, nil)
	s.assertFailureStatus(resp, http.StatusServiceUnavailable, "Service Unavailable")

	whitelisted, err := s.handler.Registry.CheckCategory(context.Background(), testTenant, "999")
	s.NoError(err)
	s.False(whitelisted)
}
