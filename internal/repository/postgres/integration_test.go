//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/drquandary/COC/internal/model"
	"github.com/drquandary/COC/internal/testutil"
)

var testDB *sql.DB

func TestMain(m *testing.M) {
	m.Run()
}

func setup(t *testing.T) {
	t.Helper()
	if testDB == nil {
		testDB = testutil.SetupDB(t)
	}
	testutil.CleanupDB(t, testDB)
}

// createTestUser is a helper that inserts a user and returns it.
func createTestUser(t *testing.T, repo *UserRepo, suffix string) *model.User {
	t.Helper()
	u, err := repo.Upsert(context.Background(), "google", "provider-"+suffix, "User "+suffix, "https://avatar/"+suffix)
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return u
}

// --- UserRepo Tests ---

func TestUserUpsertCreates(t *testing.T) {
	setup(t)
	repo := NewUserRepo(testDB)

	u, err := repo.Upsert(context.Background(), "google", "goog-123", "Alice", "https://avatar/alice")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if u.ID == "" {
		t.Fatal("expected non-empty ID")
	}
	if u.Provider != "google" || u.ProviderID != "goog-123" {
		t.Fatalf("unexpected provider data: %s / %s", u.Provider, u.ProviderID)
	}
	if u.DisplayName != "Alice" {
		t.Fatalf("expected display name Alice, got %s", u.DisplayName)
	}
}

func TestUserUpsertUpdates(t *testing.T) {
	setup(t)
	repo := NewUserRepo(testDB)

	u1, err := repo.Upsert(context.Background(), "google", "goog-456", "Bob", "https://old")
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	u2, err := repo.Upsert(context.Background(), "google", "goog-456", "Bobby", "https://new")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if u1.ID != u2.ID {
		t.Fatalf("upsert should return same ID: %s vs %s", u1.ID, u2.ID)
	}
	if u2.DisplayName != "Bobby" {
		t.Fatalf("expected updated name Bobby, got %s", u2.DisplayName)
	}
	if u2.AvatarURL != "https://new" {
		t.Fatalf("expected updated avatar, got %s", u2.AvatarURL)
	}
}

func TestUserFindByID(t *testing.T) {
	setup(t)
	repo := NewUserRepo(testDB)

	created, _ := repo.Upsert(context.Background(), "google", "goog-find", "FindMe", "")
	found, err := repo.FindByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if found == nil || found.ID != created.ID {
		t.Fatal("expected to find user by ID")
	}

	// Not found
	notFound, err := repo.FindByID(context.Background(), "00000000-0000-0000-0000-000000000000")
	if err != nil {
		t.Fatalf("find missing: %v", err)
	}
	if notFound != nil {
		t.Fatal("expected nil for missing user")
	}
}

func TestUserLocalAccount(t *testing.T) {
	setup(t)
	repo := NewUserRepo(testDB)

	created, err := repo.CreateLocal(context.Background(), "enheduanna@example.com", "bcrypt-hash", "Enheduanna")
	if err != nil {
		t.Fatalf("create local: %v", err)
	}
	if created.Provider != "local" || created.Email != "enheduanna@example.com" {
		t.Fatalf("unexpected local user: %+v", created)
	}

	found, err := repo.FindByEmail(context.Background(), "enheduanna@example.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if found == nil || found.ID != created.ID {
		t.Fatal("expected to find local user by email")
	}
	if found.PasswordHash != "bcrypt-hash" {
		t.Fatalf("expected stored password hash, got %q", found.PasswordHash)
	}

	missing, err := repo.FindByEmail(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("find missing email: %v", err)
	}
	if missing != nil {
		t.Fatal("expected nil for unknown email")
	}
}

func TestUserUpdateDisplayName(t *testing.T) {
	setup(t)
	repo := NewUserRepo(testDB)

	u, _ := repo.Upsert(context.Background(), "google", "goog-upd", "OldName", "")
	if err := repo.UpdateDisplayName(context.Background(), u.ID, "NewName"); err != nil {
		t.Fatalf("update display name: %v", err)
	}

	found, _ := repo.FindByID(context.Background(), u.ID)
	if found.DisplayName != "NewName" {
		t.Fatalf("expected NewName, got %s", found.DisplayName)
	}
}

// --- GameRepo Tests ---

func TestGameCreate(t *testing.T) {
	setup(t)
	userRepo := NewUserRepo(testDB)
	gameRepo := NewGameRepo(testDB)

	creator := createTestUser(t, userRepo, "creator")

	g, err := gameRepo.Create(context.Background(), "Test Game", creator.ID, "24 hours")
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	if g.ID == "" {
		t.Fatal("expected non-empty game ID")
	}
	if g.Name != "Test Game" {
		t.Fatalf("expected game name 'Test Game', got '%s'", g.Name)
	}
	if g.Status != "waiting" {
		t.Fatalf("expected waiting status, got %s", g.Status)
	}
}

func TestGameFindByIDWithPlayers(t *testing.T) {
	setup(t)
	userRepo := NewUserRepo(testDB)
	gameRepo := NewGameRepo(testDB)

	creator := createTestUser(t, userRepo, "owner")
	g, _ := gameRepo.Create(context.Background(), "With Players", creator.ID, "24 hours")
	gameRepo.JoinGame(context.Background(), g.ID, creator.ID, "babylon")

	player2 := createTestUser(t, userRepo, "p2")
	gameRepo.JoinGame(context.Background(), g.ID, player2.ID, "")

	found, err := gameRepo.FindByID(context.Background(), g.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if found == nil {
		t.Fatal("expected to find game")
	}
	if len(found.Players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(found.Players))
	}
	if found.Players[0].Civilization != "babylon" {
		t.Fatalf("expected creator civilization babylon, got %q", found.Players[0].Civilization)
	}
	if found.Players[1].Civilization != "" {
		t.Fatalf("expected empty civilization for second player, got %q", found.Players[1].Civilization)
	}
}

func TestGameJoinIdempotent(t *testing.T) {
	setup(t)
	userRepo := NewUserRepo(testDB)
	gameRepo := NewGameRepo(testDB)

	creator := createTestUser(t, userRepo, "joiner")
	g, _ := gameRepo.Create(context.Background(), "Join Test", creator.ID, "24 hours")

	// Join twice - second should be a no-op (ON CONFLICT DO NOTHING)
	if err := gameRepo.JoinGame(context.Background(), g.ID, creator.ID, ""); err != nil {
		t.Fatalf("first join: %v", err)
	}
	if err := gameRepo.JoinGame(context.Background(), g.ID, creator.ID, ""); err != nil {
		t.Fatalf("second join should not error: %v", err)
	}

	count, _ := gameRepo.PlayerCount(context.Background(), g.ID)
	if count != 1 {
		t.Fatalf("expected 1 player after duplicate join, got %d", count)
	}
}

func TestGameAssignCivilizations(t *testing.T) {
	setup(t)
	userRepo := NewUserRepo(testDB)
	gameRepo := NewGameRepo(testDB)

	creator := createTestUser(t, userRepo, "assign-c")
	g, _ := gameRepo.Create(context.Background(), "Civ Test", creator.ID, "24 hours")

	civs := []string{"babylon", "assyria", "egypt", "persia"}
	var users []*model.User
	for _, civ := range civs {
		u := createTestUser(t, userRepo, "assign-"+civ)
		gameRepo.JoinGame(context.Background(), g.ID, u.ID, "")
		users = append(users, u)
	}

	assignments := make(map[string]string)
	for i, u := range users {
		assignments[u.ID] = civs[i]
	}

	if err := gameRepo.AssignCivilizations(context.Background(), g.ID, assignments); err != nil {
		t.Fatalf("assign civilizations: %v", err)
	}

	found, _ := gameRepo.FindByID(context.Background(), g.ID)
	if found.Status != "active" {
		t.Fatalf("expected active status, got %s", found.Status)
	}
	if found.StartedAt == nil {
		t.Fatal("expected started_at to be set")
	}

	playerCivs := make(map[string]string)
	for _, p := range found.Players {
		playerCivs[p.UserID] = p.Civilization
	}
	for _, u := range users {
		if playerCivs[u.ID] != assignments[u.ID] {
			t.Fatalf("player %s: expected civilization %s, got %s", u.ID, assignments[u.ID], playerCivs[u.ID])
		}
	}
}

func TestGameSetFinished(t *testing.T) {
	setup(t)
	userRepo := NewUserRepo(testDB)
	gameRepo := NewGameRepo(testDB)

	creator := createTestUser(t, userRepo, "finisher")
	g, _ := gameRepo.Create(context.Background(), "Finish Test", creator.ID, "24 hours")

	if err := gameRepo.SetFinished(context.Background(), g.ID, "babylon"); err != nil {
		t.Fatalf("set finished: %v", err)
	}

	found, _ := gameRepo.FindByID(context.Background(), g.ID)
	if found.Status != "finished" {
		t.Fatalf("expected finished, got %s", found.Status)
	}
	if found.Winner != "babylon" {
		t.Fatalf("expected winner babylon, got %s", found.Winner)
	}
	if found.FinishedAt == nil {
		t.Fatal("expected finished_at to be set")
	}
}

func TestGameDeleteCascades(t *testing.T) {
	setup(t)
	userRepo := NewUserRepo(testDB)
	gameRepo := NewGameRepo(testDB)
	turnRepo := NewTurnRepo(testDB)

	creator := createTestUser(t, userRepo, "deleter")
	g, _ := gameRepo.Create(context.Background(), "Delete Test", creator.ID, "24 hours")
	gameRepo.JoinGame(context.Background(), g.ID, creator.ID, "babylon")
	turnRepo.CreateTurn(context.Background(), g.ID, 1, 1, "spring", "spring_orders",
		json.RawMessage(`{}`), time.Now().Add(time.Hour))

	if err := gameRepo.Delete(context.Background(), g.ID); err != nil {
		t.Fatalf("delete game: %v", err)
	}

	found, _ := gameRepo.FindByID(context.Background(), g.ID)
	if found != nil {
		t.Fatal("expected game deleted")
	}
	turn, _ := turnRepo.CurrentTurn(context.Background(), g.ID)
	if turn != nil {
		t.Fatal("expected turns deleted with game")
	}
}

// --- TurnRepo Tests ---

func TestTurnCreateAndCurrent(t *testing.T) {
	setup(t)
	userRepo := NewUserRepo(testDB)
	gameRepo := NewGameRepo(testDB)
	turnRepo := NewTurnRepo(testDB)

	creator := createTestUser(t, userRepo, "turn-c")
	g, _ := gameRepo.Create(context.Background(), "Turn Test", creator.ID, "24 hours")

	stateBefore := json.RawMessage(`{"year":1,"season":"spring","phase":"spring_orders","units":[]}`)
	deadline := time.Now().Add(24 * time.Hour)

	turn, err := turnRepo.CreateTurn(context.Background(), g.ID, 1, 1, "spring", "spring_orders", stateBefore, deadline)
	if err != nil {
		t.Fatalf("create turn: %v", err)
	}
	if turn.ID == "" {
		t.Fatal("expected non-empty turn ID")
	}
	if turn.Year != 1 || turn.Season != "spring" || turn.Phase != "spring_orders" {
		t.Fatalf("unexpected turn: %d %s %s", turn.Year, turn.Season, turn.Phase)
	}

	// Verify JSONB round-trip
	var stateData map[string]any
	if err := json.Unmarshal(turn.StateBefore, &stateData); err != nil {
		t.Fatalf("unmarshal state_before: %v", err)
	}
	if stateData["season"] != "spring" {
		t.Fatalf("JSONB round-trip failed: %v", stateData)
	}

	current, err := turnRepo.CurrentTurn(context.Background(), g.ID)
	if err != nil {
		t.Fatalf("current turn: %v", err)
	}
	if current == nil || current.ID != turn.ID {
		t.Fatal("current turn should return the unresolved turn")
	}
}

func TestTurnCurrentReturnsOnlyUnresolved(t *testing.T) {
	setup(t)
	userRepo := NewUserRepo(testDB)
	gameRepo := NewGameRepo(testDB)
	turnRepo := NewTurnRepo(testDB)

	creator := createTestUser(t, userRepo, "unres-c")
	g, _ := gameRepo.Create(context.Background(), "Unresolved Test", creator.ID, "24 hours")

	state := json.RawMessage(`{"year":1}`)
	deadline := time.Now().Add(24 * time.Hour)

	t1, _ := turnRepo.CreateTurn(context.Background(), g.ID, 1, 1, "spring", "spring_orders", state, deadline)
	turnRepo.ResolveTurn(context.Background(), t1.ID, json.RawMessage(`{"year":1,"season":"fall"}`))

	t2, _ := turnRepo.CreateTurn(context.Background(), g.ID, 2, 1, "fall", "fall_orders", state, deadline)

	current, _ := turnRepo.CurrentTurn(context.Background(), g.ID)
	if current == nil || current.ID != t2.ID {
		t.Fatalf("expected current turn to be t2, got %v", current)
	}
}

func TestTurnResolve(t *testing.T) {
	setup(t)
	userRepo := NewUserRepo(testDB)
	gameRepo := NewGameRepo(testDB)
	turnRepo := NewTurnRepo(testDB)

	creator := createTestUser(t, userRepo, "resolve-c")
	g, _ := gameRepo.Create(context.Background(), "Resolve Test", creator.ID, "24 hours")

	state := json.RawMessage(`{"year":1}`)
	deadline := time.Now().Add(24 * time.Hour)
	turn, _ := turnRepo.CreateTurn(context.Background(), g.ID, 1, 1, "spring", "spring_orders", state, deadline)

	stateAfter := json.RawMessage(`{"year":1,"season":"fall","units":[{"type":"army","region":"babylon"}]}`)
	if err := turnRepo.ResolveTurn(context.Background(), turn.ID, stateAfter); err != nil {
		t.Fatalf("resolve turn: %v", err)
	}

	turns, _ := turnRepo.ListTurns(context.Background(), g.ID)
	if len(turns) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(turns))
	}
	if turns[0].ResolvedAt == nil {
		t.Fatal("expected resolved_at to be set")
	}
	if turns[0].StateAfter == nil {
		t.Fatal("expected state_after to be set")
	}

	var afterData map[string]any
	json.Unmarshal(turns[0].StateAfter, &afterData)
	if afterData["season"] != "fall" {
		t.Fatal("state_after JSONB round-trip failed")
	}
}

func TestTurnListExpired(t *testing.T) {
	setup(t)
	userRepo := NewUserRepo(testDB)
	gameRepo := NewGameRepo(testDB)
	turnRepo := NewTurnRepo(testDB)

	creator := createTestUser(t, userRepo, "expired-c")
	state := json.RawMessage(`{}`)

	// Active game with an expired turn.
	g1, _ := gameRepo.Create(context.Background(), "Expired", creator.ID, "24 hours")
	gameRepo.JoinGame(context.Background(), g1.ID, creator.ID, "babylon")
	gameRepo.AssignCivilizations(context.Background(), g1.ID, map[string]string{creator.ID: "babylon"})
	turnRepo.CreateTurn(context.Background(), g1.ID, 1, 1, "spring", "spring_orders", state, time.Now().Add(-time.Minute))

	// Waiting game with an expired turn must not show up.
	g2, _ := gameRepo.Create(context.Background(), "Still Waiting", creator.ID, "24 hours")
	turnRepo.CreateTurn(context.Background(), g2.ID, 1, 1, "spring", "spring_orders", state, time.Now().Add(-time.Minute))

	// Active game with a future deadline must not show up.
	g3, _ := gameRepo.Create(context.Background(), "Future", creator.ID, "24 hours")
	gameRepo.JoinGame(context.Background(), g3.ID, creator.ID, "")
	gameRepo.AssignCivilizations(context.Background(), g3.ID, map[string]string{creator.ID: "egypt"})
	turnRepo.CreateTurn(context.Background(), g3.ID, 1, 1, "spring", "spring_orders", state, time.Now().Add(time.Hour))

	expired, err := turnRepo.ListExpired(context.Background())
	if err != nil {
		t.Fatalf("list expired: %v", err)
	}
	if len(expired) != 1 {
		t.Fatalf("expected 1 expired turn, got %d", len(expired))
	}
	if expired[0].GameID != g1.ID {
		t.Fatalf("expected expired turn for %s, got %s", g1.ID, expired[0].GameID)
	}
}
