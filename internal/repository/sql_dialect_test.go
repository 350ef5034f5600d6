package repository

import (
	"strings"
	"testing"
)

func TestBuildLikeConditionByDialect(t *testing.T) {
	condition, argCount := buildLikeConditionByDialect("sqlite", "email", " ", "display_name")
	if argCount != 2 {
		t.Fatalf("arg count want 2 got %d", argCount)
	}
	if condition != "(email LIKE ? OR display_name LIKE ?)" {
		t.Fatalf("unexpected sqlite condition: %s", condition)
	}

	condition, _ = buildLikeConditionByDialect("postgres", "email")
	if condition != "(email ILIKE ?)" {
		t.Fatalf("unexpected postgres condition: %s", condition)
	}

	if condition, argCount := buildLikeConditionByDialect("sqlite"); condition != "" || argCount != 0 {
		t.Fatalf("empty columns should build nothing")
	}
}

func TestRepeatLikeArgs(t *testing.T) {
	args := repeatLikeArgs("%test%", 3)
	if len(args) != 3 {
		t.Fatalf("args len want 3 got %d", len(args))
	}
	for idx, arg := range args {
		if arg != "%test%" {
			t.Fatalf("args[%d] want %%test%% got %v", idx, arg)
		}
	}
}

func TestDownlineCTEDepthGuard(t *testing.T) {
	if strings.Contains(downlineCTE(0), "t.depth <") {
		t.Fatalf("unbounded cte should not contain depth guard")
	}
	if !strings.Contains(downlineCTE(3), "WHERE t.depth < 3") {
		t.Fatalf("bounded cte should contain depth guard: %s", downlineCTE(3))
	}
}
