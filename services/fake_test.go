package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/padelflow/models"
	"github.com/Dosada05/padelflow/repositories"
	"github.com/Dosada05/padelflow/storage"
)

// ------------------------
// In-memory store
// ------------------------

// memStore backs every fake repository. Hooks in failOn make a named
// method return an error, trace records the calls in order.
type memStore struct {
	mu sync.Mutex

	tournaments  map[int]*models.Tournament
	entrants     map[int][]models.Entrant
	courts       map[int][]models.Court
	matches      map[int]*models.Match
	matchPlayers []models.MatchPlayer
	nextMatchID  int

	failOn map[string]error
	trace  []string
}

func newMemStore() *memStore {
	return &memStore{
		tournaments: make(map[int]*models.Tournament),
		entrants:    make(map[int][]models.Entrant),
		courts:      make(map[int][]models.Court),
		matches:     make(map[int]*models.Match),
		nextMatchID: 100,
		failOn:      make(map[string]error),
	}
}

func (s *memStore) record(call string) error {
	s.trace = append(s.trace, call)
	return s.failOn[call]
}

// Trace returns the sequence of repository calls made so far.
func (s *memStore) Trace() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.trace))
	copy(out, s.trace)
	return out
}

func (s *memStore) snapshot() *memStore {
	c := newMemStore()
	for id, t := range s.tournaments {
		cp := *t
		c.tournaments[id] = &cp
	}
	for id, list := range s.entrants {
		c.entrants[id] = append([]models.Entrant(nil), list...)
	}
	for id, list := range s.courts {
		c.courts[id] = append([]models.Court(nil), list...)
	}
	for id, m := range s.matches {
		cp := *m
		c.matches[id] = &cp
	}
	c.matchPlayers = append([]models.MatchPlayer(nil), s.matchPlayers...)
	c.nextMatchID = s.nextMatchID
	return c
}

func (s *memStore) restore(from *memStore) {
	s.tournaments = from.tournaments
	s.entrants = from.entrants
	s.courts = from.courts
	s.matches = from.matches
	s.matchPlayers = from.matchPlayers
	s.nextMatchID = from.nextMatchID
}

func (s *memStore) addTournament(t models.Tournament) {
	s.tournaments[t.ID] = &t
}

func (s *memStore) addEntrant(tournamentID, playerID int, ranking float64, teamKey string) {
	e := models.Entrant{TournamentID: tournamentID, PlayerID: playerID, Name: fmt.Sprintf("player %d", playerID), Ranking: ranking}
	if teamKey != "" {
		key := teamKey
		e.TeamKey = &key
	}
	s.entrants[tournamentID] = append(s.entrants[tournamentID], e)
}

// addMatch creates a match row directly and returns its id.
func (s *memStore) addMatch(tournamentID int, phase string) int {
	id := s.nextMatchID
	s.nextMatchID++
	s.matches[id] = &models.Match{ID: id, TournamentID: tournamentID, Phase: phase}
	return id
}

func (s *memStore) addPlayers(matchID int, slot models.TeamSlot, winnerFrom *int, playerIDs ...int) {
	for _, p := range playerIDs {
		s.matchPlayers = append(s.matchPlayers, models.MatchPlayer{MatchID: matchID, PlayerID: p, Team: slot, WinnerFrom: winnerFrom})
	}
}

func (s *memStore) matchByPhase(tournamentID int, phase string) *models.Match {
	for _, m := range s.matches {
		if m.TournamentID == tournamentID && m.Phase == phase {
			return m
		}
	}
	return nil
}

// playersOf returns the players of a match sorted by slot and id.
func (s *memStore) playersOf(matchID int) []models.MatchPlayer {
	var out []models.MatchPlayer
	for _, mp := range s.matchPlayers {
		if mp.MatchID == matchID {
			out = append(out, mp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Team != out[j].Team {
			return out[i].Team < out[j].Team
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out
}

// ------------------------
// Fake Transactor
// ------------------------

// fakeTransactor runs fn directly and restores the store when fn fails,
// imitating a rollback.
type fakeTransactor struct {
	store *memStore
	calls int
	err   error
}

func (f *fakeTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repositories.SQLExecutor) error) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.store.mu.Lock()
	before := f.store.snapshot()
	f.store.mu.Unlock()

	if err := fn(ctx, nil); err != nil {
		f.store.mu.Lock()
		f.store.restore(before)
		f.store.trace = append(f.store.trace, "Rollback")
		f.store.mu.Unlock()
		return err
	}
	return nil
}

// ------------------------
// Fake repositories
// ------------------------

type fakeTournamentRepo struct{ s *memStore }

func (r fakeTournamentRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Tournament.GetByID"); err != nil {
		return nil, err
	}
	t, ok := r.s.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	cp := *t
	return &cp, nil
}

func (r fakeTournamentRepo) GetForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Tournament.GetForUpdate"); err != nil {
		return nil, err
	}
	t, ok := r.s.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	cp := *t
	return &cp, nil
}

func (r fakeTournamentRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Tournament.UpdateStatus"); err != nil {
		return err
	}
	t, ok := r.s.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

type fakeEntrantRepo struct{ s *memStore }

func (r fakeEntrantRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]models.Entrant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Entrant.ListByTournament"); err != nil {
		return nil, err
	}
	return append([]models.Entrant(nil), r.s.entrants[tournamentID]...), nil
}

func (r fakeEntrantRepo) Add(ctx context.Context, exec repositories.SQLExecutor, tournamentID, playerID int, teamKey *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Entrant.Add"); err != nil {
		return err
	}
	for _, e := range r.s.entrants[tournamentID] {
		if e.PlayerID == playerID {
			return repositories.ErrEntrantConflict
		}
	}
	e := models.Entrant{TournamentID: tournamentID, PlayerID: playerID}
	if teamKey != nil {
		key := *teamKey
		e.TeamKey = &key
	}
	r.s.entrants[tournamentID] = append(r.s.entrants[tournamentID], e)
	return nil
}

func (r fakeEntrantRepo) SetTeamKey(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, teamKey string, playerIDs []int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Entrant.SetTeamKey"); err != nil {
		return err
	}
	updated := 0
	list := r.s.entrants[tournamentID]
	for i := range list {
		for _, p := range playerIDs {
			if list[i].PlayerID == p {
				key := teamKey
				list[i].TeamKey = &key
				updated++
			}
		}
	}
	if updated == 0 {
		return repositories.ErrEntrantNotFound
	}
	return nil
}

func (r fakeEntrantRepo) Remove(ctx context.Context, exec repositories.SQLExecutor, tournamentID, playerID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Entrant.Remove"); err != nil {
		return err
	}
	list := r.s.entrants[tournamentID]
	for i, e := range list {
		if e.PlayerID == playerID {
			r.s.entrants[tournamentID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return repositories.ErrEntrantNotFound
}

func (r fakeEntrantRepo) RemoveTeam(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, teamKey string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Entrant.RemoveTeam"); err != nil {
		return err
	}
	var kept []models.Entrant
	for _, e := range r.s.entrants[tournamentID] {
		if e.TeamKey != nil && *e.TeamKey == teamKey {
			continue
		}
		kept = append(kept, e)
	}
	if len(kept) == len(r.s.entrants[tournamentID]) {
		return repositories.ErrEntrantNotFound
	}
	r.s.entrants[tournamentID] = kept
	return nil
}

type fakeCourtRepo struct{ s *memStore }

func (r fakeCourtRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]models.Court, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Court.ListByTournament"); err != nil {
		return nil, err
	}
	return append([]models.Court(nil), r.s.courts[tournamentID]...), nil
}

func (r fakeCourtRepo) ReplaceForTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, courtIDs []int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Court.ReplaceForTournament"); err != nil {
		return err
	}
	courts := make([]models.Court, 0, len(courtIDs))
	for _, id := range courtIDs {
		courts = append(courts, models.Court{ID: id, Name: fmt.Sprintf("Court %d", id), Status: models.CourtAvailable})
	}
	r.s.courts[tournamentID] = courts
	return nil
}

type fakeMatchRepo struct{ s *memStore }

func (r fakeMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Match.Create"); err != nil {
		return err
	}
	if r.s.matchByPhase(match.TournamentID, match.Phase) != nil {
		return repositories.ErrMatchPhaseConflict
	}
	match.ID = r.s.nextMatchID
	match.CreatedAt = time.Now()
	r.s.nextMatchID++
	cp := *match
	r.s.matches[match.ID] = &cp
	return nil
}

func (r fakeMatchRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int, forUpdate bool) (*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	call := "Match.GetByID"
	if forUpdate {
		call += "ForUpdate"
	}
	if err := r.s.record(call); err != nil {
		return nil, err
	}
	m, ok := r.s.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	cp := *m
	return &cp, nil
}

func (r fakeMatchRepo) GetByPhase(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, phase string, forUpdate bool) (*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	call := "Match.GetByPhase"
	if forUpdate {
		call += "ForUpdate"
	}
	if err := r.s.record(call); err != nil {
		return nil, err
	}
	m := r.s.matchByPhase(tournamentID, phase)
	if m == nil {
		return nil, repositories.ErrMatchNotFound
	}
	cp := *m
	return &cp, nil
}

func (r fakeMatchRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Match.ListByTournament"); err != nil {
		return nil, err
	}
	var out []*models.Match
	for _, m := range r.s.matches {
		if m.TournamentID == tournamentID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r fakeMatchRepo) UpdateScore(ctx context.Context, exec repositories.SQLExecutor, id int, sets [3]models.SetScore, winner models.TeamSlot, endAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Match.UpdateScore"); err != nil {
		return err
	}
	m, ok := r.s.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	w := winner
	end := endAt
	m.Sets = sets
	m.TeamWinner = &w
	m.EndTimestamp = &end
	return nil
}

type fakeMatchPlayerRepo struct{ s *memStore }

func (r fakeMatchPlayerRepo) Insert(ctx context.Context, exec repositories.SQLExecutor, mp models.MatchPlayer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("MatchPlayer.Insert"); err != nil {
		return err
	}
	for _, existing := range r.s.matchPlayers {
		if existing.MatchID == mp.MatchID && existing.PlayerID == mp.PlayerID {
			return repositories.ErrMatchPlayerConflict
		}
	}
	r.s.matchPlayers = append(r.s.matchPlayers, mp)
	return nil
}

func (r fakeMatchPlayerRepo) ListByMatch(ctx context.Context, exec repositories.SQLExecutor, matchID int) ([]models.MatchPlayer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("MatchPlayer.ListByMatch"); err != nil {
		return nil, err
	}
	return r.s.playersOf(matchID), nil
}

func (r fakeMatchPlayerRepo) ListByMatchAndTeam(ctx context.Context, exec repositories.SQLExecutor, matchID int, team models.TeamSlot) ([]models.MatchPlayer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("MatchPlayer.ListByMatchAndTeam"); err != nil {
		return nil, err
	}
	var out []models.MatchPlayer
	for _, mp := range r.s.playersOf(matchID) {
		if mp.Team == team {
			out = append(out, mp)
		}
	}
	return out, nil
}

func (r fakeMatchPlayerRepo) DeleteByWinnerFrom(ctx context.Context, exec repositories.SQLExecutor, matchID, winnerFrom int) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("MatchPlayer.DeleteByWinnerFrom"); err != nil {
		return 0, err
	}
	var kept []models.MatchPlayer
	var removed int64
	for _, mp := range r.s.matchPlayers {
		if mp.MatchID == matchID && mp.WinnerFrom != nil && *mp.WinnerFrom == winnerFrom {
			removed++
			continue
		}
		kept = append(kept, mp)
	}
	r.s.matchPlayers = kept
	return removed, nil
}

func (r fakeMatchPlayerRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]models.MatchPlayer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("MatchPlayer.ListByTournament"); err != nil {
		return nil, err
	}
	var out []models.MatchPlayer
	for _, mp := range r.s.matchPlayers {
		if m, ok := r.s.matches[mp.MatchID]; ok && m.TournamentID == tournamentID {
			out = append(out, mp)
		}
	}
	return out, nil
}

// ------------------------
// Fake publisher and uploader
// ------------------------

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Types() []EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeUploader struct {
	UploadFunc func(ctx context.Context, key, contentType string, body []byte) (*storage.UploadResult, error)
	uploads    map[string][]byte
}

func (u *fakeUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if u.UploadFunc != nil {
		return u.UploadFunc(ctx, key, contentType, body)
	}
	if u.uploads == nil {
		u.uploads = make(map[string][]byte)
	}
	u.uploads[key] = body
	return &storage.UploadResult{Key: key, Location: "https://cdn.example.com/" + key}, nil
}

func (u *fakeUploader) Delete(ctx context.Context, key string) error {
	delete(u.uploads, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

type countingMetrics struct {
	NoOpMetrics
	mu           sync.Mutex
	advancements int
	corrections  int
	failures     int
}

func (m *countingMetrics) IncAdvancement(corrected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.advancements++
	if corrected {
		m.corrections++
	}
}

func (m *countingMetrics) IncEventPublishFailure(EventType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}
