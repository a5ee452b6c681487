// ABOUTME: Command-line interface for the freakotp token vault
// ABOUTME: Generates OTP codes and manages tokens in a local SQLite database

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/andreax79/freakotp/internal/config"
	"github.com/andreax79/freakotp/internal/otp"
	"github.com/andreax79/freakotp/internal/store"
	"github.com/andreax79/freakotp/internal/vault"
)

const timestampFormat = "2006-01-02T15:04:05"

type app struct {
	vault        *vault.Vault
	settings     config.Settings
	settingsPath string
	verbose      bool
	codeOpts     otp.CodeOptions
	stdout       io.Writer
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	var (
		dbPath       string
		settingsPath string
		verbose      bool
		codeOpts     otp.CodeOptions
	)

	// Global flags end at the first non-flag argument
	i := 0
	for ; i < len(argv); i++ {
		arg := argv[i]
		if !strings.HasPrefix(arg, "-") {
			break
		}
		switch arg {
		case "--db":
			if i+1 >= len(argv) {
				return usageError("--db requires a path")
			}
			i++
			dbPath = argv[i]
		case "--config":
			if i+1 >= len(argv) {
				return usageError("--config requires a path")
			}
			i++
			settingsPath = argv[i]
		case "-c", "--counter":
			if i+1 >= len(argv) {
				return usageError("--counter requires a value")
			}
			i++
			n, err := strconv.ParseInt(argv[i], 10, 64)
			if err != nil {
				return usageError("invalid counter %q", argv[i])
			}
			codeOpts.Counter = &n
		case "-t", "--time":
			if i+1 >= len(argv) {
				return usageError("--time requires a timestamp")
			}
			i++
			ts, err := time.ParseInLocation(timestampFormat, argv[i], time.Local)
			if err != nil {
				return usageError("invalid timestamp %q (want %s)", argv[i], timestampFormat)
			}
			codeOpts.Time = &ts
		case "-v", "--verbose":
			verbose = true
		case "-h", "--help":
			printUsage()
			return 0
		default:
			return usageError("unknown option %s", arg)
		}
	}
	args := argv[i:]

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if len(args) > 0 && (args[0] == "help" || args[0] == "--help") {
		printUsage()
		return 0
	}

	var err error
	if dbPath == "" {
		dbPath = os.Getenv("FREAKOTP_DB")
	}
	if dbPath == "" {
		if dbPath, err = config.DefaultDatabasePath(); err != nil {
			return fail(err)
		}
	}
	if settingsPath == "" {
		if settingsPath, err = config.DefaultSettingsPath(); err != nil {
			return fail(err)
		}
	}
	settings, err := config.Load(settingsPath)
	if err != nil {
		return fail(err)
	}

	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return fail(err)
	}
	defer s.Close()

	a := &app{
		vault:        vault.New(s),
		settings:     settings,
		settingsPath: settingsPath,
		verbose:      verbose,
		codeOpts:     codeOpts,
		stdout:       os.Stdout,
	}

	ctx := context.Background()
	cmd := "otp"
	if len(args) > 0 {
		switch args[0] {
		case "otp", "ls", "add", "delete", "uri", "qrcode", "import", "export", "config":
			cmd = args[0]
			args = args[1:]
		default:
			// Bare patterns behave like "otp PATTERN..."
		}
	}

	switch cmd {
	case "otp":
		err = a.cmdOTP(ctx, args)
	case "ls":
		err = a.cmdLs(ctx, args)
	case "add":
		err = a.cmdAdd(ctx, args)
	case "delete":
		err = a.cmdDelete(ctx, args)
	case "uri":
		err = a.cmdURI(ctx, args)
	case "qrcode":
		err = a.cmdQRCode(ctx, args)
	case "import":
		err = a.cmdImport(ctx, args)
	case "export":
		err = a.cmdExport(ctx, args)
	case "config":
		err = a.cmdConfig(args)
	}
	if err != nil {
		if ue, ok := err.(usageErr); ok {
			return usageError("%s", string(ue))
		}
		return fail(err)
	}
	return 0
}

// usageErr marks errors that should exit with the usage status code.
type usageErr string

func (e usageErr) Error() string { return string(e) }

func fail(err error) int {
	color.Red("Error: %v", err)
	return 1
}

func usageError(format string, args ...any) int {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	printUsage()
	return 2
}

func printUsage() {
	yellow := color.New(color.FgYellow)

	fmt.Println("Usage: freakotp [options] [command] [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  otp [-l] [PATTERN...]     Display codes (default command)")
	fmt.Println("  ls [-l] [PATTERN...]      List tokens without codes")
	fmt.Println("  add [options]             Add a token (prompts for missing fields)")
	fmt.Println("  delete [-f] PATTERN...    Delete matching tokens")
	fmt.Println("  uri PATTERN...            Print otpauth:// URIs")
	fmt.Println("  qrcode [-i] PATTERN...    Print QR codes")
	fmt.Println("  import --filename F       Import a FreeOTP backup")
	fmt.Println("  export --filename F       Export a FreeOTP backup")
	fmt.Println("  config [set KEY VALUE]    Show or change settings")
	fmt.Println()
	yellow.Println("Options:")
	fmt.Println("  --db PATH                 Token database (or FREAKOTP_DB)")
	fmt.Println("  --config PATH             Settings file")
	fmt.Println("  -c, --counter N           HOTP counter override")
	fmt.Println("  -t, --time TIMESTAMP      Code time, format " + timestampFormat)
	fmt.Println("  -v, --verbose             Show token details and debug logging")
	fmt.Println()
	yellow.Println("Examples:")
	fmt.Println("  freakotp github")
	fmt.Println("  freakotp add -i GitHub -l alice -s GEZDGNBVGY3TQOJQ")
	fmt.Println("  freakotp export --filename backup.json")
}

// resolve turns patterns into tokens, falling back to the whole vault
// when no pattern is given.
func (a *app) resolve(ctx context.Context, patterns []string) ([]*otp.Token, error) {
	if len(patterns) == 0 {
		return a.vault.All(ctx)
	}
	return a.vault.Find(ctx, patterns...)
}

func (a *app) showDetails(token *otp.Token) {
	if a.verbose {
		color.Yellow("%s", token.Details())
	}
}

// hotpSuffix annotates HOTP codes with the stored counter.
func hotpSuffix(token *otp.Token) string {
	if token.Type == otp.TypeHOTP && token.Counter != 0 {
		return fmt.Sprintf(" (%d)", token.Counter)
	}
	return ""
}

func (a *app) cmdOTP(ctx context.Context, args []string) error {
	longFormat, patterns, err := parseListArgs(args)
	if err != nil {
		return err
	}
	tokens, err := a.resolve(ctx, patterns)
	if err != nil {
		return err
	}

	// The patternless default listing honors the show_codes setting;
	// asking for specific tokens always shows their codes.
	if len(patterns) == 0 && !a.settings.ShowCodes {
		return a.printTokens(tokens, longFormat)
	}

	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	copied := false
	for _, token := range tokens {
		a.showDetails(token)
		code := token.Calculate(&a.codeOpts)
		spin := ""
		if a.settings.ShowTimeLeft {
			spin = token.Spinner(a.settings.SpinnerStyle)
		}
		if longFormat {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%d\t%d\t%s%s\t%s\n",
				code, token.RowID, token.Type, token.Algorithm,
				token.Digits, token.Period, token, hotpSuffix(token), spin)
		} else {
			fmt.Fprintf(a.stdout, "%s %s%s %s\n", code, token, hotpSuffix(token), spin)
		}
		if !copied && len(patterns) > 0 && a.settings.CopyToClipboard {
			copyToClipboard(a.stdout, code)
			copied = true
		}
	}
	if longFormat {
		return w.Flush()
	}
	return nil
}

func (a *app) cmdLs(ctx context.Context, args []string) error {
	longFormat, patterns, err := parseListArgs(args)
	if err != nil {
		return err
	}
	tokens, err := a.resolve(ctx, patterns)
	if err != nil {
		return err
	}
	return a.printTokens(tokens, longFormat)
}

// printTokens lists tokens without computing codes.
func (a *app) printTokens(tokens []*otp.Token, longFormat bool) error {
	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	for _, token := range tokens {
		a.showDetails(token)
		if longFormat {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\n",
				token.RowID, token.Type, token.Algorithm,
				token.Digits, token.Period, token)
		} else {
			fmt.Fprintln(a.stdout, token)
		}
	}
	if longFormat {
		return w.Flush()
	}
	return nil
}

func parseListArgs(args []string) (longFormat bool, patterns []string, err error) {
	for _, arg := range args {
		switch arg {
		case "-l", "--long":
			longFormat = true
		default:
			if strings.HasPrefix(arg, "-") {
				return false, nil, usageErr(fmt.Sprintf("unknown option %s", arg))
			}
			patterns = append(patterns, arg)
		}
	}
	return longFormat, patterns, nil
}

func (a *app) cmdAdd(ctx context.Context, args []string) error {
	var (
		typeStr   = "TOTP"
		algorithm = otp.DefaultAlgorithm
		counter   int64
		digits    = otp.DefaultDigits
		issuer    string
		label     string
		period    = otp.DefaultPeriod
		secretStr string
		uri       string
	)
	for i := 0; i < len(args); i++ {
		need := func() (string, error) {
			if i+1 >= len(args) {
				return "", usageErr(fmt.Sprintf("%s requires a value", args[i]))
			}
			i++
			return args[i], nil
		}
		var v string
		var err error
		switch args[i] {
		case "--type":
			if v, err = need(); err == nil {
				typeStr = v
			}
		case "-a", "--algorithm":
			if v, err = need(); err == nil {
				algorithm = v
			}
		case "-c", "--counter":
			if v, err = need(); err == nil {
				if counter, err = strconv.ParseInt(v, 10, 64); err != nil {
					err = usageErr(fmt.Sprintf("invalid counter %q", v))
				}
			}
		case "-d", "--digits":
			if v, err = need(); err == nil {
				if digits, err = strconv.Atoi(v); err != nil {
					err = usageErr(fmt.Sprintf("invalid digits %q", v))
				}
			}
		case "-i", "--issuer":
			if v, err = need(); err == nil {
				issuer = v
			}
		case "-l", "--label":
			if v, err = need(); err == nil {
				label = v
			}
		case "-p", "--period":
			if v, err = need(); err == nil {
				if period, err = strconv.Atoi(v); err != nil {
					err = usageErr(fmt.Sprintf("invalid period %q", v))
				}
			}
		case "-s", "--secret":
			if v, err = need(); err == nil {
				secretStr = v
			}
		case "-u", "--uri":
			if v, err = need(); err == nil {
				uri = v
			}
		default:
			err = usageErr(fmt.Sprintf("unknown option %s", args[i]))
		}
		if err != nil {
			return err
		}
	}

	reader := bufio.NewReader(os.Stdin)
	if secretStr == "" && uri == "" {
		uri = prompt(reader, "URI (otpauth://)", "")
		if uri == "" {
			typeStr = prompt(reader, "Token type (TOTP/HOTP/SecurID)", typeStr)
			algorithm = prompt(reader, "Algorithm", algorithm)
			if strings.EqualFold(typeStr, string(otp.TypeHOTP)) {
				counter = promptInt64(reader, "HOTP counter value", counter)
			}
			digits = promptInt(reader, "Number of digits in one-time password", digits)
			period = promptInt(reader, "Time-step duration in seconds", period)
			issuer = prompt(reader, "Issuer", issuer)
			label = prompt(reader, "Label", label)
			secretStr = prompt(reader, "Secret key (Base32)", "")
		}
	}

	var token *otp.Token
	var err error
	if uri != "" {
		token, err = a.vault.AddURI(ctx, uri)
		if err != nil {
			return err
		}
	} else {
		tokenType, err := otp.ParseType(typeStr)
		if err != nil {
			return err
		}
		secret, err := otp.SecretFromBase32(secretStr)
		if err != nil {
			return err
		}
		token = otp.NewToken(tokenType)
		token.Algorithm = algorithm
		token.Counter = counter
		token.Digits = digits
		token.Period = period
		token.Label = label
		token.Secret = secret
		token.SetIssuer(issuer)
		if err := a.vault.Add(ctx, token); err != nil {
			return err
		}
	}
	color.Green("Added %s", token)
	return nil
}

func prompt(r *bufio.Reader, label, def string) string {
	if def != "" {
		fmt.Printf("%s [%s]: ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}
	line, err := r.ReadString('\n')
	if err != nil {
		return def
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

func promptInt(r *bufio.Reader, label string, def int) int {
	if n, err := strconv.Atoi(prompt(r, label, strconv.Itoa(def))); err == nil {
		return n
	}
	return def
}

func promptInt64(r *bufio.Reader, label string, def int64) int64 {
	if n, err := strconv.ParseInt(prompt(r, label, strconv.FormatInt(def, 10)), 10, 64); err == nil {
		return n
	}
	return def
}

func (a *app) cmdDelete(ctx context.Context, args []string) error {
	force := false
	var patterns []string
	for _, arg := range args {
		switch arg {
		case "-f", "--force":
			force = true
		default:
			if strings.HasPrefix(arg, "-") {
				return usageErr(fmt.Sprintf("unknown option %s", arg))
			}
			patterns = append(patterns, arg)
		}
	}
	if len(patterns) == 0 {
		return usageErr("delete requires at least one pattern")
	}

	tokens, err := a.vault.Find(ctx, patterns...)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return fmt.Errorf("no token matches %s", strings.Join(patterns, " "))
	}

	reader := bufio.NewReader(os.Stdin)
	for _, token := range tokens {
		a.showDetails(token)
		if !force {
			answer := prompt(reader, fmt.Sprintf("Delete %s? [y/N]", token), "n")
			if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
				continue
			}
		}
		if err := a.vault.Remove(ctx, token); err != nil {
			return err
		}
		color.Green("Deleted %s", token)
	}
	return nil
}

func (a *app) cmdURI(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageErr("uri requires at least one pattern")
	}
	tokens, err := a.vault.Find(ctx, args...)
	if err != nil {
		return err
	}
	for _, token := range tokens {
		a.showDetails(token)
		fmt.Println(token.URI())
	}
	return nil
}

func (a *app) cmdQRCode(ctx context.Context, args []string) error {
	invert := false
	var patterns []string
	for _, arg := range args {
		switch arg {
		case "-i", "--invert":
			invert = true
		default:
			if strings.HasPrefix(arg, "-") {
				return usageErr(fmt.Sprintf("unknown option %s", arg))
			}
			patterns = append(patterns, arg)
		}
	}
	if len(patterns) == 0 {
		return usageErr("qrcode requires at least one pattern")
	}
	tokens, err := a.vault.Find(ctx, patterns...)
	if err != nil {
		return err
	}
	for _, token := range tokens {
		a.showDetails(token)
		if err := printQRCode(os.Stdout, token, invert); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) cmdImport(ctx context.Context, args []string) error {
	var filename string
	deleteExisting := false
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--filename":
			if i+1 >= len(args) {
				return usageErr("--filename requires a path")
			}
			i++
			filename = args[i]
		case "--delete-existing-data":
			deleteExisting = true
		default:
			return usageErr(fmt.Sprintf("unknown option %s", args[i]))
		}
	}
	if filename == "" {
		return usageErr("import requires --filename")
	}
	count, err := a.vault.Import(ctx, filename, deleteExisting)
	if err != nil {
		return err
	}
	color.Green("Imported %d tokens", count)
	return nil
}

func (a *app) cmdExport(ctx context.Context, args []string) error {
	var filename string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--filename":
			if i+1 >= len(args) {
				return usageErr("--filename requires a path")
			}
			i++
			filename = args[i]
		default:
			return usageErr(fmt.Sprintf("unknown option %s", args[i]))
		}
	}
	if filename == "" {
		return usageErr("export requires --filename")
	}
	count, err := a.vault.Export(ctx, filename)
	if err != nil {
		return err
	}
	color.Green("Exported %d tokens", count)
	return nil
}

func (a *app) cmdConfig(args []string) error {
	if len(args) == 0 {
		fmt.Printf("copy_to_clipboard = %t\n", a.settings.CopyToClipboard)
		fmt.Printf("show_codes = %t\n", a.settings.ShowCodes)
		fmt.Printf("show_time_left = %t\n", a.settings.ShowTimeLeft)
		fmt.Printf("spinner_style = %q\n", a.settings.SpinnerStyle)
		return nil
	}
	if args[0] != "set" || len(args) != 3 {
		return usageErr("usage: config [set KEY VALUE]")
	}
	if err := a.settings.Set(args[1], args[2]); err != nil {
		return err
	}
	if err := config.Save(a.settingsPath, a.settings); err != nil {
		return err
	}
	color.Green("%s = %s", args[1], args[2])
	return nil
}
