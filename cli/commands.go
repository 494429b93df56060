package cli

var (
	Version   = ""
	CommitSHA = ""
)

// Globals defines global flags available to all commands.
type Globals struct {
	Config    string `help:"Configuration file." default:"beancount_bot.yml" short:"c" type:"path"`
	LogLevel  string `help:"Override the configured log level (debug, info, warn, error)." name:"log-level"`
	Telemetry bool   `help:"Show timing telemetry for operations."`
}

type Commands struct {
	Globals

	Serve    ServeCmd    `cmd:"" help:"Start the bot's HTTP API."`
	Add      AddCmd      `cmd:"" help:"Record a transaction from free text."`
	Withdraw WithdrawCmd `cmd:"" help:"Withdraw a recorded transaction by its handle."`
	Format   FormatCmd   `cmd:"" help:"Print the ledger entry free text would produce, without recording it."`
	Help     HelpCmd     `cmd:"" help:"Show the accepted syntaxes, or the usage of one."`
	Check    CheckCmd    `cmd:"" help:"Index the ledger and report the transactions the bot can withdraw."`
	Doctor   DoctorCmd   `cmd:"" help:"Doctor utilities for debugging input syntaxes."`
}
