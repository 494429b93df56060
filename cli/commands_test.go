package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/beancount-bot/config"
)

const testConfig = `
log:
  level: error
transaction:
  beancount_file: main.bean
  tags: [bot]
dispatchers:
  - name: Beancount
    type: beancount
  - name: Shorthand
    type: shorthand
    args:
      currency: USD
      accounts: {cash: Assets:Cash, food: Expenses:Food}
`

const testHeader = "2024-01-01 open Assets:Cash\n\n"

var handlePattern = regexp.MustCompile(`bot-uuid: "([^"]+)"`)

type testEnv struct {
	config string
	ledger string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		config: filepath.Join(dir, config.DefaultPath),
		ledger: filepath.Join(dir, "main.bean"),
	}
	assert.NoError(t, os.WriteFile(env.config, []byte(testConfig), 0o644))
	assert.NoError(t, os.WriteFile(env.ledger, []byte(testHeader), 0o644))
	return env
}

func (e *testEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var commands Commands
	var stdout, stderr bytes.Buffer

	parser, err := kong.New(&commands,
		kong.Name("beancount-bot"),
		kong.Writers(&stdout, &stderr),
		kong.Bind(&commands.Globals),
		kong.Exit(func(int) { t.Fatalf("unexpected exit: %s", stderr.String()) }),
	)
	assert.NoError(t, err)

	ctx, err := parser.Parse(append([]string{"--config", e.config}, args...))
	assert.NoError(t, err)

	err = ctx.Run()
	return stdout.String(), stderr.String(), err
}

func (e *testEnv) readLedger(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(e.ledger)
	assert.NoError(t, err)
	return string(data)
}

func TestAddAndWithdraw(t *testing.T) {
	env := newTestEnv(t)

	stdout, _, err := env.run(t, "add", "--tags", "trip", "12.50", "cash", "food", "Noodles", "#lunch")
	assert.NoError(t, err)
	assert.Contains(t, stdout, "Recorded transaction")
	assert.Contains(t, stdout, "#bot #trip #lunch")

	data := env.readLedger(t)
	match := handlePattern.FindStringSubmatch(data)
	assert.True(t, match != nil, "expected a handle in %q", data)
	handle := match[1]
	assert.Contains(t, stdout, handle)
	assert.True(t, strings.HasPrefix(data, testHeader))

	stdout, _, err = env.run(t, "check", "--list")
	assert.NoError(t, err)
	assert.Contains(t, stdout, handle)
	assert.Contains(t, stdout, "1 withdrawable transactions")

	stdout, _, err = env.run(t, "withdraw", "--yes", handle)
	assert.NoError(t, err)
	assert.Contains(t, stdout, "Withdrew transaction")
	assert.Equal(t, testHeader, env.readLedger(t))

	_, stderr, err := env.run(t, "withdraw", "--yes", handle)
	assert.Equal(t, 1, ExitCode(err))
	assert.Contains(t, stderr, "was not found")
}

func TestAddErrors(t *testing.T) {
	env := newTestEnv(t)

	_, stderr, err := env.run(t, "add", "hello", "there")
	assert.Equal(t, 1, ExitCode(err))
	assert.Contains(t, stderr, "None of the configured syntaxes understood that")

	_, stderr, err = env.run(t, "add", "10", "cash", "drinks")
	assert.Equal(t, 1, ExitCode(err))
	assert.Contains(t, stderr, `unknown account "drinks"`)

	assert.Equal(t, testHeader, env.readLedger(t))
}

func TestWithdrawRequiresConfirmation(t *testing.T) {
	env := newTestEnv(t)

	_, stderr, err := env.run(t, "withdraw", "some-handle")
	assert.Equal(t, 1, ExitCode(err))
	assert.Contains(t, stderr, "--yes")
}

func TestFormatCmd(t *testing.T) {
	env := newTestEnv(t)

	t.Run("Arguments", func(t *testing.T) {
		stdout, stderr, err := env.run(t, "format", "12.50", "cash", "food", "Noodles")
		assert.NoError(t, err)
		assert.Contains(t, stderr, "Understood by Shorthand")
		assert.Contains(t, stdout, `"Noodles" #bot`)
		assert.Contains(t, stdout, "Expenses:Food")
		assert.NotContains(t, stdout, "bot-uuid")
		assert.Equal(t, testHeader, env.readLedger(t))
	})

	t.Run("Stdin", func(t *testing.T) {
		previous := stdin
		stdin = strings.NewReader("2024-01-15 * \"Cafe\" \"Lunch\"\n  Expenses:Food  25.00 USD\n  Assets:Cash\n")
		t.Cleanup(func() { stdin = previous })

		stdout, stderr, err := env.run(t, "format", "--currency-column", "40")
		assert.NoError(t, err)
		assert.Contains(t, stderr, "Understood by Beancount")
		assert.Contains(t, stdout, `2024-01-15 * "Cafe" "Lunch" #bot`)
		for _, line := range strings.Split(stdout, "\n") {
			if strings.Contains(line, "USD") {
				// The number ends at the column, the currency follows a space.
				assert.Equal(t, 41, strings.Index(line, "USD"), "line %q", line)
			}
		}
	})

	t.Run("SyntaxErrorContext", func(t *testing.T) {
		_, stderr, err := env.run(t, "format", "2024-01-15 * \"Cafe\"\n  Expenses:Food  25.00 usd\n  Assets:Cash")
		assert.Equal(t, 1, ExitCode(err))
		assert.Contains(t, stderr, "Beancount")
		assert.Contains(t, stderr, "^")
	})

	t.Run("EmptyInput", func(t *testing.T) {
		previous := stdin
		stdin = strings.NewReader("  \n")
		t.Cleanup(func() { stdin = previous })

		_, stderr, err := env.run(t, "format")
		assert.Equal(t, 1, ExitCode(err))
		assert.Contains(t, stderr, "No text given.")
	})
}

func TestHelpCmd(t *testing.T) {
	env := newTestEnv(t)

	stdout, _, err := env.run(t, "help")
	assert.NoError(t, err)
	assert.True(t, strings.Index(stdout, "Beancount") < strings.Index(stdout, "Shorthand"))
	assert.Contains(t, stdout, "AMOUNT [CURRENCY] FROM TO")

	stdout, _, err = env.run(t, "help", "shorthand")
	assert.NoError(t, err)
	assert.Contains(t, stdout, "cash = Assets:Cash")
	assert.NotContains(t, stdout, "complete Beancount transaction")

	_, stderr, err := env.run(t, "help", "llm")
	assert.Equal(t, 1, ExitCode(err))
	assert.Contains(t, stderr, "Available: Beancount, Shorthand")
}

func TestCheckCmdCorruptLedger(t *testing.T) {
	env := newTestEnv(t)
	entry := "2024-01-02 * \"Twice\"\n  bot-uuid: \"dup\"\n  Expenses:Food  1 USD\n  Assets:Cash\n\n"
	assert.NoError(t, os.WriteFile(env.ledger, []byte(testHeader+entry+entry), 0o644))

	_, stderr, err := env.run(t, "check")
	assert.Equal(t, 1, ExitCode(err))
	assert.Contains(t, stderr, "cannot be indexed")
}

func TestDoctorCmd(t *testing.T) {
	env := newTestEnv(t)

	t.Run("Lex", func(t *testing.T) {
		stdout, _, err := env.run(t, "doctor", "lex", `2024-01-15 * "Cafe"`)
		assert.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(stdout), "\n")
		assert.Equal(t, 3, len(lines))
		assert.True(t, strings.HasPrefix(lines[0], "DATE"))
		assert.Contains(t, lines[2], `"\"Cafe\""`)
	})

	t.Run("Parse", func(t *testing.T) {
		stdout, _, err := env.run(t, "doctor", "parse", "3", "cash", "food", "Tea")
		assert.NoError(t, err)
		assert.Contains(t, stdout, "ast.Transaction")
		assert.Contains(t, stdout, `Narration: "Tea"`)
		assert.Contains(t, stdout, `Dispatcher: "Shorthand"`)
	})
}
