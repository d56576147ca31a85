package identity

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tfkr-ae/showcase/domain"
	"github.com/tfkr-ae/showcase/storage"
	"github.com/tfkr-ae/showcase/storage/storagetest"
)

func fixedClock() func() time.Time {
	now := time.Date(2025, 10, 20, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return now }
}

func TestManager_Stamp(t *testing.T) {
	ctx := context.Background()

	t.Run("should persist the stamp and return it across reloads", func(t *testing.T) {
		store := storagetest.NewStore(t)

		first := New(store, linuxFirefox).GetOrCreateStamp(ctx)
		if first != Stamp(linuxFirefox) {
			t.Fatalf("\nwanted:\n%s\ngot:\n%s", Stamp(linuxFirefox), first)
		}

		stored := storage.Load[string](ctx, store, storage.KeyUserStamp)
		if stored != first {
			t.Fatalf("\nwanted:\n%s\ngot:\n%s", first, stored)
		}

		reloaded := New(store, linuxFirefox)
		for i := 0; i < 3; i++ {
			if got := reloaded.GetOrCreateStamp(ctx); got != first {
				t.Fatalf("\nwanted:\n%s\ngot:\n%s", first, got)
			}
		}
	})

	t.Run("should prefer a stored stamp over the fingerprint", func(t *testing.T) {
		store := storagetest.NewStore(t)
		store.Save(ctx, storage.KeyUserStamp, "ABC123")

		if got := New(store, linuxFirefox).GetOrCreateStamp(ctx); got != "ABC123" {
			t.Fatalf("\nwanted:\nABC123\ngot:\n%s", got)
		}
	})

	t.Run("should derive the same stamp without storage", func(t *testing.T) {
		store := storagetest.NewUnavailableStore(t)

		if got := New(store, linuxFirefox).GetOrCreateStamp(ctx); got != Stamp(linuxFirefox) {
			t.Fatalf("\nwanted:\n%s\ngot:\n%s", Stamp(linuxFirefox), got)
		}
	})
}

func TestManager_SetNickname(t *testing.T) {
	ctx := context.Background()

	t.Run("should keep a free nickname unchanged", func(t *testing.T) {
		store := storagetest.NewStore(t)
		m := New(store, linuxFirefox, WithClock(fixedClock()))

		got, err := m.SetNickname(ctx, "  Alice ")
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if got != "Alice" {
			t.Fatalf("\nwanted:\nAlice\ngot:\n%s", got)
		}
		if stored := m.Nickname(ctx); stored != "Alice" {
			t.Fatalf("\nwanted:\nAlice\ngot:\n%s", stored)
		}

		users := m.Users(ctx)
		if len(users) != 1 {
			t.Fatalf("\nwanted:\n1\ngot:\n%d", len(users))
		}
		if users[0].Stamp != Stamp(linuxFirefox) || users[0].Nickname != "Alice" {
			t.Fatalf("\nwanted:\n%s Alice\ngot:\n%+v", Stamp(linuxFirefox), users[0])
		}
		if !users[0].LastActive.Equal(fixedClock()()) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", fixedClock()(), users[0].LastActive)
		}
	})

	t.Run("should suffix a taken nickname with the own stamp", func(t *testing.T) {
		store := storagetest.NewStore(t)

		first := New(store, linuxFirefox)
		if got, _ := first.SetNickname(ctx, "Alice"); got != "Alice" {
			t.Fatalf("\nwanted:\nAlice\ngot:\n%s", got)
		}

		// Someone else uses this profile after its identity was reset.
		store.Remove(ctx, storage.KeyUserStamp)
		store.Remove(ctx, storage.KeyUserNickname)

		second := New(store, macSafari)
		got, err := second.SetNickname(ctx, "alice")
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		want := "alice#" + Stamp(macSafari)
		if got != want {
			t.Fatalf("\nwanted:\n%s\ngot:\n%s", want, got)
		}

		users := second.Users(ctx)
		if len(users) != 2 {
			t.Fatalf("\nwanted:\n2\ngot:\n%d", len(users))
		}
		if users[0].Nickname != "Alice" {
			t.Fatalf("first user lost its nickname: %+v", users[0])
		}
	})

	t.Run("should let a user reclaim its own nickname", func(t *testing.T) {
		store := storagetest.NewStore(t)
		m := New(store, linuxFirefox)

		m.SetNickname(ctx, "Alice")
		got, err := m.SetNickname(ctx, "Alice")
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if got != "Alice" {
			t.Fatalf("\nwanted:\nAlice\ngot:\n%s", got)
		}
		if users := m.Users(ctx); len(users) != 1 {
			t.Fatalf("\nwanted:\n1\ngot:\n%d", len(users))
		}
	})

	t.Run("should reject empty and over-long nicknames", func(t *testing.T) {
		m := New(storagetest.NewStore(t), linuxFirefox, WithMaxNicknameLength(5))

		for _, nickname := range []string{"", "   ", "Alexandra"} {
			if _, err := m.SetNickname(ctx, nickname); err == nil {
				t.Fatalf("nickname %q: wanted error, got nil", nickname)
			}
		}
	})

	t.Run("should apply a changed nickname limit", func(t *testing.T) {
		m := New(storagetest.NewStore(t), linuxFirefox, WithMaxNicknameLength(5))

		if _, err := m.SetNickname(ctx, "Alexandra"); !errors.Is(err, ErrInvalidNickname) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", ErrInvalidNickname, err)
		}

		m.SetMaxNicknameLength(9)
		got, err := m.SetNickname(ctx, "Alexandra")
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if got != "Alexandra" {
			t.Fatalf("\nwanted:\nAlexandra\ngot:\n%s", got)
		}
	})

	t.Run("should keep the nickname for the session when storage is unavailable", func(t *testing.T) {
		m := New(storagetest.NewUnavailableStore(t), linuxFirefox)

		got, err := m.SetNickname(ctx, "Alice")
		if err == nil {
			t.Fatalf("\nwanted:\nnon-nil\ngot:\nnil")
		}
		if got != "Alice" {
			t.Fatalf("\nwanted:\nAlice\ngot:\n%s", got)
		}
		if current := m.Current(ctx); current.Nickname != "Alice" {
			t.Fatalf("\nwanted:\nAlice\ngot:\n%s", current.Nickname)
		}
	})
}

func TestManager_SaveUserDetails(t *testing.T) {
	ctx := context.Background()

	t.Run("should shallow merge details with new keys winning", func(t *testing.T) {
		store := storagetest.NewStore(t)
		m := New(store, linuxFirefox)

		if err := m.SaveUserDetails(ctx, map[string]any{"name": "Alice", "city": "Dubai"}); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if err := m.SaveUserDetails(ctx, map[string]any{"city": "Muscat", "role": "dev"}); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		got := m.UserDetails(ctx)
		want := map[string]any{"name": "Alice", "city": "Muscat", "role": "dev"}
		if len(got) != len(want) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", want, got)
		}
		for k, v := range want {
			if got[k] != v {
				t.Fatalf("\nwanted:\n%v\ngot:\n%v", want, got)
			}
		}

		users := m.Users(ctx)
		if len(users) != 1 || users[0].Details["city"] != "Muscat" {
			t.Fatalf("directory entry not updated: %+v", users)
		}
	})
}

func TestManager_Session(t *testing.T) {
	ctx := context.Background()

	t.Run("should continue a session across page loads", func(t *testing.T) {
		store := storagetest.NewStore(t)
		now := time.Date(2025, 10, 20, 12, 0, 0, 0, time.UTC)
		m := New(store, linuxFirefox, WithClock(func() time.Time { return now }))

		first, err := m.StartSession(ctx)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		now = now.Add(5 * time.Minute)
		second, err := New(store, linuxFirefox, WithClock(func() time.Time { return now })).StartSession(ctx)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if second.SessionID != first.SessionID {
			t.Fatalf("\nwanted:\n%s\ngot:\n%s", first.SessionID, second.SessionID)
		}
		if second.PageViews != 2 {
			t.Fatalf("\nwanted:\n2\ngot:\n%d", second.PageViews)
		}
	})

	t.Run("should start a new session after the idle timeout", func(t *testing.T) {
		store := storagetest.NewStore(t)
		now := time.Date(2025, 10, 20, 12, 0, 0, 0, time.UTC)
		m := New(store, linuxFirefox, WithClock(func() time.Time { return now }))

		first, _ := m.StartSession(ctx)
		now = now.Add(SessionIdleTimeout + time.Second)
		second, _ := m.StartSession(ctx)

		if second.SessionID == first.SessionID {
			t.Fatalf("wanted a new session id, got the old one %s", first.SessionID)
		}
		if second.PageViews != 1 {
			t.Fatalf("\nwanted:\n1\ngot:\n%d", second.PageViews)
		}
	})

	t.Run("should snapshot the session and pending location", func(t *testing.T) {
		store := storagetest.NewStore(t)
		m := New(store, linuxFirefox)

		session, _ := m.StartSession(ctx)
		snapshot := m.SessionSnapshot(ctx)

		if snapshot["sessionId"] != session.SessionID {
			t.Fatalf("\nwanted:\n%s\ngot:\n%v", session.SessionID, snapshot["sessionId"])
		}
		if snapshot["location"] != domain.LocationPending {
			t.Fatalf("\nwanted:\n%s\ngot:\n%v", domain.LocationPending, snapshot["location"])
		}
	})

	t.Run("should resolve the location placeholder", func(t *testing.T) {
		store := storagetest.NewStore(t)
		m := New(store, linuxFirefox)

		lat, lon := 25.2, 55.3
		if err := m.SetLocation(ctx, domain.Location{Status: domain.LocationResolved, Latitude: &lat, Longitude: &lon}); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		got := New(store, linuxFirefox).Location(ctx)
		if got.Status != domain.LocationResolved || got.Latitude == nil || *got.Latitude != lat {
			t.Fatalf("\nwanted:\nresolved %v\ngot:\n%+v", lat, got)
		}
	})

	t.Run("should record the device over a stored null", func(t *testing.T) {
		store := storagetest.NewStore(t)
		if err := store.Set(ctx, storage.KeyDevices, nil); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if _, err := New(store, linuxFirefox).StartSession(ctx); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		devices := storage.Load[map[string]any](ctx, store, storage.KeyDevices)
		if _, ok := devices[Stamp(linuxFirefox)]; !ok || len(devices) != 1 {
			t.Fatalf("\nwanted:\n%s\ngot:\n%v", Stamp(linuxFirefox), devices)
		}
	})

	t.Run("should report unsaved sessions without storage", func(t *testing.T) {
		m := New(storagetest.NewUnavailableStore(t), linuxFirefox)

		session, err := m.StartSession(ctx)
		if err == nil {
			t.Fatalf("\nwanted:\nnon-nil\ngot:\nnil")
		}
		if session.SessionID == "" || !strings.Contains(err.Error(), "saving session") {
			t.Fatalf("wanted an in-memory session and a save error, got %+v %v", session, err)
		}
	})
}
