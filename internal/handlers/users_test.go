package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/lorekeep/lorekeep/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMeRequiresAuth(t *testing.T) {
	app := newTestApp(t)

	w := app.request(t, "GET", "/api/users/me", nil, "")
	requireStatus(t, w, http.StatusUnauthorized)

	w = app.request(t, "GET", "/api/users/me", nil, "not-a-token")
	requireStatus(t, w, http.StatusUnauthorized)
}

func TestGetMe(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser(t, "thrall", true)

	w := app.request(t, "GET", "/api/users/me", nil, app.accessToken(t, user.ID))
	requireStatus(t, w, http.StatusOK)

	body := decodeBody(t, w)
	assert.Equal(t, "thrall", body["username"])
	assert.Equal(t, "thrall@example.com", body["email"])
}

func TestUpdateMeUsernameConflict(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser(t, "thrall", true)
	app.createUser(t, "jaina", true)
	token := app.accessToken(t, user.ID)

	w := app.request(t, "PUT", "/api/users/me", map[string]interface{}{"username": "jaina"}, token)
	requireStatus(t, w, http.StatusConflict)

	w = app.request(t, "PUT", "/api/users/me", map[string]interface{}{"username": "warchief"}, token)
	requireStatus(t, w, http.StatusOK)

	var updated models.User
	require.NoError(t, app.db.First(&updated, user.ID).Error)
	assert.Equal(t, "warchief", updated.Username)
}

func TestUpdateMeAvatarUpload(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser(t, "thrall", true)
	token := app.accessToken(t, user.ID)

	w := app.multipartRequest(t, "PUT", "/api/users/me", nil, "avatar", "face.png", []byte("png-bytes"), token)
	requireStatus(t, w, http.StatusOK)

	var updated models.User
	require.NoError(t, app.db.First(&updated, user.ID).Error)
	require.NotEmpty(t, updated.Avatar)
	assert.True(t, app.uploads.Exists(updated.Avatar))

	// Replacing the avatar cleans up the old file.
	first := updated.Avatar
	w = app.multipartRequest(t, "PUT", "/api/users/me", nil, "avatar", "face2.jpg", []byte("jpg-bytes"), token)
	requireStatus(t, w, http.StatusOK)

	require.NoError(t, app.db.First(&updated, user.ID).Error)
	assert.NotEqual(t, first, updated.Avatar)
	assert.False(t, app.uploads.Exists(first))

	w = app.multipartRequest(t, "PUT", "/api/users/me", nil, "avatar", "script.sh", []byte("#!/bin/sh"), token)
	requireStatus(t, w, http.StatusBadRequest)
}

func TestChangePassword(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser(t, "thrall", true)
	token := app.accessToken(t, user.ID)

	w := app.request(t, "PUT", "/api/users/me/password", map[string]interface{}{
		"current_password": "wrong-password",
		"new_password":     "a-new-password",
	}, token)
	requireStatus(t, w, http.StatusUnauthorized)

	// New passwords under eight characters are rejected.
	w = app.request(t, "PUT", "/api/users/me/password", map[string]interface{}{
		"current_password": testPassword,
		"new_password":     "short",
	}, token)
	requireStatus(t, w, http.StatusBadRequest)

	w = app.request(t, "PUT", "/api/users/me/password", map[string]interface{}{
		"current_password": testPassword,
		"new_password":     "a-new-password",
	}, token)
	requireStatus(t, w, http.StatusOK)

	w = app.request(t, "POST", "/api/auth/login", map[string]interface{}{
		"username": "thrall",
		"password": "a-new-password",
	}, "")
	requireStatus(t, w, http.StatusOK)
}

func TestListMyCharactersIncludesPrivate(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser(t, "thrall", true)
	token := app.accessToken(t, user.ID)

	app.createCharacter(t, token, "Grom", nil)
	app.createCharacter(t, token, "Secret Grom", map[string]interface{}{"is_public": false})

	w := app.request(t, "GET", "/api/users/me/characters", nil, token)
	requireStatus(t, w, http.StatusOK)

	characters := jsonGet[[]interface{}](t, decodeBody(t, w), "characters")
	assert.Len(t, characters, 2)
}

func TestListMyEventsFilters(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser(t, "thrall", true)
	other := app.createUser(t, "jaina", true)
	token := app.accessToken(t, user.ID)

	created := app.createEvent(t, token, "My Brewfest", nil)
	joined := app.createEvent(t, app.accessToken(t, other.ID), "Jaina's Ball", nil)

	w := app.request(t, "POST", fmt.Sprintf("/api/events/%d/rsvp", joined), map[string]interface{}{"status": "maybe"}, token)
	requireStatus(t, w, http.StatusOK)

	collect := func(filter string) map[string]map[string]interface{} {
		w := app.request(t, "GET", "/api/users/me/events?filter="+filter, nil, token)
		requireStatus(t, w, http.StatusOK)

		events := jsonGet[[]interface{}](t, decodeBody(t, w), "events")
		byTitle := make(map[string]map[string]interface{}, len(events))

		for _, e := range events {
			entry := e.(map[string]interface{})
			byTitle[entry["title"].(string)] = entry
		}

		return byTitle
	}

	all := collect("all")
	require.Len(t, all, 2)
	assert.Equal(t, true, all["My Brewfest"]["is_creator"])
	assert.Equal(t, "attending", all["My Brewfest"]["rsvp_status"])
	assert.Equal(t, false, all["Jaina's Ball"]["is_creator"])
	assert.Equal(t, "maybe", all["Jaina's Ball"]["rsvp_status"])

	createdOnly := collect("created")
	require.Len(t, createdOnly, 1)
	assert.Contains(t, createdOnly, "My Brewfest")
	assert.Equal(t, float64(created), createdOnly["My Brewfest"]["id"])

	participating := collect("participating")
	assert.Contains(t, participating, "Jaina's Ball")
}

func TestListFollowing(t *testing.T) {
	app := newTestApp(t)
	owner := app.createUser(t, "thrall", true)
	follower := app.createUser(t, "jaina", true)
	followerToken := app.accessToken(t, follower.ID)

	id := app.createCharacter(t, app.accessToken(t, owner.ID), "Grom", nil)

	w := app.request(t, "POST", fmt.Sprintf("/api/characters/%d/follow", id), nil, followerToken)
	requireStatus(t, w, http.StatusOK)

	w = app.request(t, "GET", "/api/users/me/following", nil, followerToken)
	requireStatus(t, w, http.StatusOK)

	following := jsonGet[[]interface{}](t, decodeBody(t, w), "following")
	require.Len(t, following, 1)

	entry := following[0].(map[string]interface{})
	assert.Equal(t, "Grom", entry["name"])
	assert.Equal(t, "thrall", entry["owner"].(map[string]interface{})["username"])
}

func TestPublicProfileHidesPrivateResources(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser(t, "thrall", true)
	token := app.accessToken(t, user.ID)

	app.createCharacter(t, token, "Grom", nil)
	app.createCharacter(t, token, "Secret Grom", map[string]interface{}{"is_public": false})
	app.createEvent(t, token, "Brewfest", nil)
	app.createEvent(t, token, "Secret Council", map[string]interface{}{"is_public": false})

	w := app.request(t, "GET", fmt.Sprintf("/api/users/%d", user.ID), nil, "")
	requireStatus(t, w, http.StatusOK)

	body := decodeBody(t, w)
	assert.Equal(t, "thrall", body["username"])

	characters := jsonGet[[]interface{}](t, body, "characters")
	require.Len(t, characters, 1)
	assert.Equal(t, "Grom", characters[0].(map[string]interface{})["name"])

	events := jsonGet[[]interface{}](t, body, "events")
	require.Len(t, events, 1)
	assert.Equal(t, "Brewfest", events[0].(map[string]interface{})["title"])
}

func TestPublicProfileUnknownUser(t *testing.T) {
	app := newTestApp(t)

	w := app.request(t, "GET", "/api/users/9999", nil, "")
	requireStatus(t, w, http.StatusNotFound)
}
