// workers/profile_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"game-lobby-system/models"
	"game-lobby-system/services"

	"gorm.io/gorm"
)

// SyncedUser matches the JSON the auth service's public profile feed returns.
type SyncedUser struct {
	ID                string    `json:"id"`
	Username          string    `json:"username"`
	ProfilePictureURL *string   `json:"profile_picture_url,omitempty"`
	AccountStatus     string    `json:"account_status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type getUserChangesResponse struct {
	Users []SyncedUser `json:"users"`
}

// ProfileSyncWorker polls the auth service for changed users and mirrors
// identity fields into local profiles. Users seen for the first time get a
// profile with the signup bonus (granted exactly once — EnsureProfile is
// idempotent), which is the moment "signup" happens from this service's view.
type ProfileSyncWorker struct {
	db           *gorm.DB
	profiles     *services.ProfileService
	interval     time.Duration
	baseURL      string
	endpointPath string
	serviceToken string
	httpClient   *http.Client
}

func NewProfileSyncWorker(db *gorm.DB, profiles *services.ProfileService, syncServiceBaseURL, endpointPath, serviceToken string) *ProfileSyncWorker {
	return &ProfileSyncWorker{
		db:           db,
		profiles:     profiles,
		interval:     1 * time.Minute,
		baseURL:      syncServiceBaseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (w *ProfileSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Profile Sync Worker (auth service → profiles)…")
	go w.run(ctx)
}

func (w *ProfileSyncWorker) run(ctx context.Context) {
	// Backfill on boot, then incremental windows.
	lastSync := time.Time{}
	if err := w.syncBatch(ctx, lastSync); err != nil {
		log.Printf("⚠️ Initial profile sync failed: %v", err)
	} else {
		lastSync = time.Now().UTC()
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Profile sync worker stopped.")
			return
		case <-ticker.C:
			windowStart := time.Now().UTC()
			if err := w.syncBatch(ctx, lastSync); err != nil {
				log.Printf("❌ Profile sync failed: %v", err)
				// Keep the window; retry the same range next tick.
				continue
			}
			lastSync = windowStart
		}
	}
}

func (w *ProfileSyncWorker) syncBatch(ctx context.Context, since time.Time) error {
	users, err := w.fetchChangedUsers(ctx, since)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return nil
	}

	created, updated := 0, 0
	for _, u := range users {
		if u.ID == "" || u.Username == "" {
			continue
		}

		profile, isNew, err := w.profiles.EnsureProfile(u.ID, u.Username)
		if err != nil {
			log.Printf("❌ Failed to ensure profile for %s: %v", u.ID, err)
			continue
		}
		if isNew {
			created++
			continue
		}

		// Existing profile: mirror identity fields only.
		if profile.Username == u.Username && equalPtr(profile.AvatarURL, u.ProfilePictureURL) {
			continue
		}
		err = w.db.Model(&models.Profile{}).
			Where("user_id = ?", u.ID).
			Updates(map[string]interface{}{
				"username":   u.Username,
				"avatar_url": u.ProfilePictureURL,
			}).Error
		if err != nil {
			log.Printf("❌ Failed to update profile for %s: %v", u.ID, err)
			continue
		}
		updated++
	}

	if created > 0 || updated > 0 {
		log.Printf("✅ Profile sync: %d created (with signup bonus), %d updated", created, updated)
	}
	return nil
}

func (w *ProfileSyncWorker) fetchChangedUsers(ctx context.Context, since time.Time) ([]SyncedUser, error) {
	u, err := url.Parse(w.baseURL + w.endpointPath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse sync URL: %w", err)
	}

	q := u.Query()
	if !since.IsZero() {
		q.Set("since", since.UTC().Format(time.RFC3339))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call sync service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("sync service returned status %d: %s", resp.StatusCode, string(body))
	}

	var response getUserChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode sync service response: %w", err)
	}

	return response.Users, nil
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
