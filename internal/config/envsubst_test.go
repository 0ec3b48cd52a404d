package config

import "testing"

func TestSubstituteEnvVars_Set(t *testing.T) {
	t.Setenv("FS_TEST_ORIGIN", "https://app.example.test")

	content, missing := substituteEnvVars(`origin = "${FS_TEST_ORIGIN}"`)
	if content != `origin = "https://app.example.test"` {
		t.Errorf("unexpected content %q", content)
	}
	if len(missing) != 0 {
		t.Errorf("expected no missing vars, got %v", missing)
	}
}

func TestSubstituteEnvVars_Missing(t *testing.T) {
	content, missing := substituteEnvVars("url = ${FIXTURESYNC_NEVER_SET_1}")
	if content != "url = ${FIXTURESYNC_NEVER_SET_1}" {
		t.Errorf("expected unchanged, got %q", content)
	}
	if len(missing) != 1 || missing[0] != "FIXTURESYNC_NEVER_SET_1" {
		t.Errorf("expected [FIXTURESYNC_NEVER_SET_1], got %v", missing)
	}
}

func TestSubstituteEnvVars_Default(t *testing.T) {
	t.Setenv("FS_TEST_EMPTY", "")

	content, missing := substituteEnvVars("${FIXTURESYNC_NEVER_SET_2:-a} ${FS_TEST_EMPTY:-b}")
	if content != "a b" {
		t.Errorf("expected 'a b', got %q", content)
	}
	if len(missing) != 0 {
		t.Errorf("expected no missing vars with default, got %v", missing)
	}
}

func TestSubstituteEnvVars_DefaultOverriddenByEnv(t *testing.T) {
	t.Setenv("FS_TEST_PREFIX", "clubs")

	content, _ := substituteEnvVars("${FS_TEST_PREFIX:-fixturesync}")
	if content != "clubs" {
		t.Errorf("expected 'clubs', got %q", content)
	}
}

func TestSubstituteEnvVars_Required(t *testing.T) {
	t.Setenv("FS_TEST_REQUIRED", "")

	content, missing := substituteEnvVars("${FS_TEST_REQUIRED:?redis url is required}")
	if content != "${FS_TEST_REQUIRED:?redis url is required}" {
		t.Errorf("expected unchanged, got %q", content)
	}
	if len(missing) != 1 || missing[0] != "FS_TEST_REQUIRED: redis url is required" {
		t.Errorf("expected message, got %v", missing)
	}
}
