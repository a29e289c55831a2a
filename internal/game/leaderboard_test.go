package game

import (
	"reflect"
	"testing"
)

func testPlayer(name string, score, seq int, animal string) *Player {
	return &Player{ID: "id-" + name, Name: name, Score: score, joinSeq: seq, Animal: animal}
}

func TestRankPlayers(t *testing.T) {
	players := []*Player{
		testPlayer("carol", 100, 2, ""),
		testPlayer("alice", 250, 0, ""),
		testPlayer("bob", 100, 1, ""),
	}

	got := rankPlayers(players)

	wantOrder := []string{"alice", "bob", "carol"}
	wantRanks := []int{1, 2, 3}
	for i, e := range got {
		if e.Name != wantOrder[i] || e.Rank != wantRanks[i] {
			t.Errorf("entry %d = %s (rank %d), want %s (rank %d)", i, e.Name, e.Rank, wantOrder[i], wantRanks[i])
		}
	}
}

func TestRankPlayersTieBreakByJoinOrder(t *testing.T) {
	players := []*Player{
		testPlayer("late", 100, 5, ""),
		testPlayer("early", 100, 1, ""),
	}

	got := rankPlayers(players)
	if got[0].Name != "early" {
		t.Errorf("first place = %s, want early (earliest join wins ties)", got[0].Name)
	}
}

func TestRankPlayersStable(t *testing.T) {
	players := []*Player{
		testPlayer("a", 120, 0, ""),
		testPlayer("b", 90, 1, ""),
		testPlayer("c", 120, 2, ""),
		testPlayer("d", 0, 3, ""),
	}

	first := rankPlayers(players)
	for i := 0; i < 20; i++ {
		if got := rankPlayers(players); !reflect.DeepEqual(got, first) {
			t.Fatalf("ranking changed across repeated computations:\n%v\nvs\n%v", got, first)
		}
	}
}

func TestRankTeams(t *testing.T) {
	players := []*Player{
		testPlayer("a", 100, 0, "otter"),
		testPlayer("b", 50, 1, "owl"),
		testPlayer("c", 80, 2, "otter"),
		testPlayer("d", 200, 3, "owl"),
	}

	got := rankTeams(players)

	if len(got) != 2 {
		t.Fatalf("got %d teams, want 2", len(got))
	}
	if got[0].Animal != "owl" || got[0].Score != 250 {
		t.Errorf("first team = %s (%d), want owl (250)", got[0].Animal, got[0].Score)
	}
	if got[1].Animal != "otter" || got[1].Score != 180 {
		t.Errorf("second team = %s (%d), want otter (180)", got[1].Animal, got[1].Score)
	}
	if !reflect.DeepEqual(got[0].Members, []string{"b", "d"}) {
		t.Errorf("owl members = %v, want [b d]", got[0].Members)
	}
}

func TestRankTeamsTieBreakByEarliestMember(t *testing.T) {
	players := []*Player{
		testPlayer("a", 100, 0, "otter"),
		testPlayer("b", 100, 1, "owl"),
	}

	got := rankTeams(players)
	if got[0].Animal != "otter" {
		t.Errorf("first team = %s, want otter (earliest member joined first)", got[0].Animal)
	}
}
