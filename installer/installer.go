// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package installer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/adrg/xdg"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-version"

	"github.com/stacklok/pdmkit/env"
	"github.com/stacklok/pdmkit/execx"
	"github.com/stacklok/pdmkit/termui"
)

// Repo is the source repository installed for version "HEAD".
const Repo = "https://github.com/pdm-project/pdm"

// VirtualenvURL is the zipapp used when the venv module is unavailable.
// The placeholder is the interpreter's major.minor version.
const VirtualenvURL = "https://bootstrap.pypa.io/virtualenv/%s/virtualenv.pyz"

// minimumPython is the oldest interpreter PDM supports.
var minimumPython = version.Must(version.NewVersion("3.8"))

// lockedSince is the first release shipping the "locked" extra.
var lockedSince = version.Must(version.NewVersion("2.17"))

var numericVersion = regexp.MustCompile(`^\d+(\.\d+)*$`)

const (
	scriptPythonVersion = `import platform; print(platform.python_version())`
	scriptPDMVersion    = `from importlib.metadata import version; print(version("pdm"))`
)

// Result describes a finished installation. It is also the JSON written
// to the output file.
type Result struct {
	PDMVersion    string `json:"pdm_version"`
	PDMBin        string `json:"pdm_bin"`
	PythonVersion string `json:"install_python_version"`
	Location      string `json:"install_location"`
}

// Installer installs and removes PDM.
type Installer struct {
	opts    Options
	home    string
	runner  execx.Runner
	client  *http.Client
	environ env.Reader
	ui      *termui.UI
	goos    string
	logger  *slog.Logger

	virtualenvURL string
}

// Option configures an Installer.
type Option func(*Installer)

// WithRunner sets the runner for python and pip.
func WithRunner(runner execx.Runner) Option {
	return func(i *Installer) {
		i.runner = runner
	}
}

// WithHTTPClient sets the client used to download virtualenv.
func WithHTTPClient(client *http.Client) Option {
	return func(i *Installer) {
		i.client = client
	}
}

// WithEnv sets the environment consulted for XDG_DATA_HOME and PATH.
func WithEnv(environ env.Reader) Option {
	return func(i *Installer) {
		i.environ = environ
	}
}

// WithUI sets where progress is reported.
func WithUI(ui *termui.UI) Option {
	return func(i *Installer) {
		i.ui = ui
	}
}

// WithVirtualenvURL overrides VirtualenvURL.
func WithVirtualenvURL(url string) Option {
	return func(i *Installer) {
		i.virtualenvURL = url
	}
}

// WithOS overrides the target operating system layout.
func WithOS(goos string) Option {
	return func(i *Installer) {
		i.goos = goos
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(i *Installer) {
		i.logger = logger
	}
}

// New creates an Installer and its home directory.
func New(opts Options, options ...Option) (*Installer, error) {
	i := &Installer{
		opts:    opts,
		environ: &env.OSReader{},
		goos:    runtime.GOOS,
		logger:  slog.Default(),

		virtualenvURL: VirtualenvURL,
	}
	for _, o := range options {
		o(i)
	}
	if i.runner == nil {
		i.runner = &execx.Exec{}
	}
	if i.client == nil {
		i.client = cleanhttp.DefaultClient()
	}
	if i.ui == nil {
		i.ui = termui.NewPlain(io.Discard)
	}
	if i.opts.Python == "" {
		i.opts.Python = defaultPython(i.goos)
	}

	home, err := i.decideHome()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(home, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", home, err)
	}
	i.home = home
	return i, nil
}

func defaultPython(goos string) string {
	if goos == "windows" {
		return "python"
	}
	return "python3"
}

func (i *Installer) decideHome() (string, error) {
	if i.opts.Location != "" {
		return absPath(i.opts.Location)
	}
	if i.goos != "windows" && i.goos != "darwin" {
		if dataHome := i.environ.Getenv("XDG_DATA_HOME"); dataHome != "" {
			return absPath(filepath.Join(dataHome, "pdm"))
		}
	}
	return absPath(filepath.Join(xdg.DataHome, "pdm"))
}

func absPath(p string) (string, error) {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding %s: %w", p, err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return filepath.Abs(p)
}

// Home returns the installation home.
func (i *Installer) Home() string { return i.home }

// VenvPath returns the virtual environment location.
func (i *Installer) VenvPath() string { return filepath.Join(i.home, "venv") }

// BinPath returns the directory the pdm script is linked into.
func (i *Installer) BinPath() string {
	if i.opts.Location != "" {
		return filepath.Join(i.home, "bin")
	}
	return xdg.BinHome
}

func (i *Installer) venvPython() string {
	if i.goos == "windows" {
		return filepath.Join(i.VenvPath(), "Scripts", "python.exe")
	}
	return filepath.Join(i.VenvPath(), "bin", "python")
}

func (i *Installer) scriptName() string {
	if i.goos == "windows" {
		return "pdm.exe"
	}
	return "pdm"
}

func (i *Installer) venvScript() string {
	if i.goos == "windows" {
		return filepath.Join(i.VenvPath(), "Scripts", i.scriptName())
	}
	return filepath.Join(i.VenvPath(), "bin", i.scriptName())
}

func (i *Installer) versionLabel() string {
	if i.opts.Version == "" {
		return "latest"
	}
	return i.opts.Version
}

func (i *Installer) step(description string) {
	i.ui.Println("Installing %s (%s): %s", i.ui.Bold("PDM"), i.versionLabel(), i.ui.Cyan(description))
}

// Requirement returns the pip requirement for a PDM version. The "locked"
// extra is only requested when frozen dependencies are wanted and the
// version is known to ship it.
func Requirement(v string, frozen bool) string {
	locked := ""
	if frozen {
		locked = "[locked]"
	}

	switch {
	case v == "":
		return "pdm" + locked
	case strings.EqualFold(v, "HEAD"):
		return fmt.Sprintf("pdm%s @ git+%s.git@main", locked, Repo)
	}

	extra := ""
	if numericVersion.MatchString(v) {
		if parsed, err := version.NewVersion(v); err == nil && parsed.GreaterThanOrEqual(lockedSince) {
			extra = locked
		}
	}
	return fmt.Sprintf("pdm%s==%s", extra, v)
}

// Install runs the installation.
func (i *Installer) Install(ctx context.Context) (Result, error) {
	if err := i.checkPython(ctx); err != nil {
		return Result{}, err
	}
	if err := i.makeEnv(ctx); err != nil {
		return Result{}, err
	}
	if err := i.installPDM(ctx); err != nil {
		return Result{}, err
	}
	script, err := i.makeBin()
	if err != nil {
		return Result{}, err
	}
	return i.postInstall(ctx, script)
}

func (i *Installer) checkPython(ctx context.Context) error {
	out, err := i.runner.Output(ctx, i.opts.Python, "-c", scriptPythonVersion)
	if err != nil {
		return fmt.Errorf("checking python interpreter %s: %w", i.opts.Python, err)
	}
	v, err := version.NewVersion(strings.TrimSpace(string(out)))
	if err != nil {
		return fmt.Errorf("parsing python version %q: %w", strings.TrimSpace(string(out)), err)
	}
	if v.LessThan(minimumPython) {
		return fmt.Errorf("python %s or above is required to install PDM, found %s", minimumPython, v)
	}
	i.logger.Debug("using python", "interpreter", i.opts.Python, "version", v.String())
	return nil
}

func (i *Installer) makeEnv(ctx context.Context) error {
	i.step("Creating virtual environment")

	venv := i.VenvPath()
	err := i.runner.Run(ctx, i.opts.Python, "-m", "venv", venv)
	if err == nil {
		return nil
	}
	i.logger.Info("venv module failed, falling back to virtualenv", "error", err)

	tmp, err := os.MkdirTemp("", "pdm-installer-")
	if err != nil {
		return fmt.Errorf("creating temporary directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	zipapp, err := i.downloadVirtualenv(ctx, tmp)
	if err != nil {
		return err
	}
	return i.runner.Run(ctx, i.opts.Python, zipapp, venv)
}

func (i *Installer) downloadVirtualenv(ctx context.Context, dir string) (string, error) {
	out, err := i.runner.Output(ctx, i.opts.Python, "-c", `import sys; print("%d.%d" % sys.version_info[:2])`)
	if err != nil {
		return "", err
	}
	url := fmt.Sprintf(i.virtualenvURL, strings.TrimSpace(string(out)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating download request: %w", err)
	}
	resp, err := i.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading %s: %s", url, resp.Status)
	}

	dest := filepath.Join(dir, "virtualenv.pyz")
	f, err := os.Create(dest) // #nosec G304 -- dest is inside a private temp dir
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("downloading %s: %w", url, err)
	}
	return dest, f.Close()
}

func (i *Installer) installPDM(ctx context.Context) error {
	i.step("Installing PDM and dependencies")
	python := i.venvPython()

	// Reinstall the bundled pip so a debundled distro pip is not used.
	if err := i.runner.Run(ctx, python, "-m", "ensurepip"); err != nil {
		i.logger.Debug("ensurepip failed", "error", err)
	}
	if err := i.runner.Run(ctx, python, "-m", "pip", "install", "-IU", "pip"); err != nil {
		return err
	}

	args := []string{"-Im", "pip", "install"}
	if i.opts.Prerelease {
		args = append(args, "--pre")
	}
	args = append(args, Requirement(i.opts.Version, i.opts.FrozenDeps))
	for _, d := range i.opts.Deps {
		if d != "" {
			args = append(args, d)
		}
	}
	return i.runner.Run(ctx, python, args...)
}

func (i *Installer) makeBin() (string, error) {
	bin := i.BinPath()
	i.ui.Println("Installing %s (%s): %s %s", i.ui.Bold("PDM"), i.versionLabel(), i.ui.Cyan("Making binary at"), bin)

	if err := os.MkdirAll(bin, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", bin, err)
	}

	script := filepath.Join(bin, i.scriptName())
	if err := os.Remove(script); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("removing old %s: %w", script, err)
	}

	target := i.venvScript()
	if err := os.Symlink(target, script); err != nil {
		i.logger.Debug("symlink failed, copying script", "error", err)
		if err := copyFile(target, script); err != nil {
			return "", fmt.Errorf("installing %s: %w", script, err)
		}
	}
	return script, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src) // #nosec G304 -- src is inside the managed venv
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755) // #nosec G302 G304 -- executable script
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func (i *Installer) postInstall(ctx context.Context, script string) (Result, error) {
	help, err := i.runner.Output(ctx, script, "--help")
	if err != nil {
		return Result{}, err
	}
	_, _ = i.ui.Writer().Write(help)
	i.ui.Println("")

	python := i.venvPython()
	pdmVersion, err := i.runner.Output(ctx, python, "-c", scriptPDMVersion)
	if err != nil {
		return Result{}, err
	}
	pythonVersion, err := i.runner.Output(ctx, python, "-c", scriptPythonVersion)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		PDMVersion:    strings.TrimSpace(string(pdmVersion)),
		PDMBin:        script,
		PythonVersion: strings.TrimSpace(string(pythonVersion)),
		Location:      i.VenvPath(),
	}
	i.ui.Success("Successfully installed: PDM (%s) at %s", res.PDMVersion, script)

	if !i.opts.SkipAddToPath {
		i.pathHint(i.BinPath())
	}
	if err := i.writeOutput(res); err != nil {
		return res, err
	}
	return res, nil
}

func (i *Installer) pathHint(bin string) {
	for _, p := range filepath.SplitList(i.environ.Getenv("PATH")) {
		if filepath.Clean(p) == filepath.Clean(bin) {
			return
		}
	}
	if i.goos == "windows" {
		i.ui.Println("Post-install: Please add %s to PATH by executing:\n    %s", bin,
			i.ui.Cyan(fmt.Sprintf(`setx PATH "%s;%%PATH%%"`, bin)))
		return
	}
	i.ui.Println("Post-install: Please add %s to PATH by executing:\n    %s", bin,
		i.ui.Cyan(fmt.Sprintf("export PATH=%s:$PATH", bin)))
}

func (i *Installer) writeOutput(res Result) error {
	if i.opts.Output == "" {
		return nil
	}
	i.ui.Println("Writing output to %s", i.opts.Output)

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	if err := os.WriteFile(i.opts.Output, data, 0o644); err != nil { // #nosec G306 -- summary is not secret
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// Uninstall removes the environment and the script. A missing
// installation is reported, not treated as an error.
func (i *Installer) Uninstall(_ context.Context) error {
	venv := i.VenvPath()
	if _, err := os.Stat(venv); errors.Is(err, os.ErrNotExist) {
		i.ui.Println("%s is not currently installed.", i.ui.Bold("PDM"))
		return nil
	}

	i.ui.Println("Uninstalling %s: %s", i.ui.Bold("PDM"), i.ui.Cyan("Removing venv and script"))
	if err := os.RemoveAll(venv); err != nil {
		return fmt.Errorf("removing %s: %w", venv, err)
	}
	script := filepath.Join(i.BinPath(), i.scriptName())
	if err := os.Remove(script); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", script, err)
	}

	i.ui.Println("")
	i.ui.Success("Successfully uninstalled")
	return nil
}
