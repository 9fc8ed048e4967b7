package render

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
)

// coreFamily is the built-in PDF font used when no Unicode TrueType pair is
// found. It only covers the cp1252 repertoire.
const coreFamily = "Helvetica"

// FontSet is the regular/bold pair a document is typeset with. Regular and
// Bold are nil for the built-in core font.
type FontSet struct {
	Family  string
	Regular []byte
	Bold    []byte
	Source  string
}

// Unicode reports whether the set embeds a TrueType pair.
func (f *FontSet) Unicode() bool {
	return f != nil && len(f.Regular) > 0 && len(f.Bold) > 0
}

// CoreFonts returns the built-in fallback set.
func CoreFonts() *FontSet {
	return &FontSet{Family: coreFamily}
}

type fontCandidate struct {
	family  string
	regular string
	bold    string
}

// Families are tried in order; file names are matched case-insensitively.
var fontCandidates = []fontCandidate{
	{family: "DejaVuSans", regular: "DejaVuSans.ttf", bold: "DejaVuSans-Bold.ttf"},
	{family: "NotoSans", regular: "NotoSans-Regular.ttf", bold: "NotoSans-Bold.ttf"},
	{family: "LiberationSans", regular: "LiberationSans-Regular.ttf", bold: "LiberationSans-Bold.ttf"},
	{family: "FreeSans", regular: "FreeSans.ttf", bold: "FreeSansBold.ttf"},
	{family: "Arial", regular: "arial.ttf", bold: "arialbd.ttf"},
	{family: "Arial", regular: "Arial.ttf", bold: "Arial Bold.ttf"},
}

// SystemFontDirs lists the usual font directories of the host OS.
func SystemFontDirs() []string {
	dirs := []string{
		"/usr/share/fonts",
		"/usr/local/share/fonts",
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".fonts"), filepath.Join(home, ".local", "share", "fonts"))
	}
	switch runtime.GOOS {
	case "darwin":
		dirs = append(dirs, "/Library/Fonts", "/System/Library/Fonts", "/System/Library/Fonts/Supplemental")
	case "windows":
		windir := os.Getenv("WINDIR")
		if windir == "" {
			windir = `C:\Windows`
		}
		dirs = append(dirs, filepath.Join(windir, "Fonts"))
	}
	return dirs
}

// ProbeFonts returns the first candidate family whose regular and bold files
// both exist under dirs and parse as TrueType. Earlier dirs win when the same
// file name appears twice. Without a complete pair it returns CoreFonts.
func ProbeFonts(dirs []string) *FontSet {
	index := indexFontFiles(dirs)
	for _, c := range fontCandidates {
		regularPath, ok := index[strings.ToLower(c.regular)]
		if !ok {
			continue
		}
		boldPath, ok := index[strings.ToLower(c.bold)]
		if !ok {
			continue
		}
		regular, err := loadTrueType(regularPath)
		if err != nil {
			continue
		}
		bold, err := loadTrueType(boldPath)
		if err != nil {
			continue
		}
		return &FontSet{Family: c.family, Regular: regular, Bold: bold, Source: regularPath}
	}
	return CoreFonts()
}

func indexFontFiles(dirs []string) map[string]string {
	index := make(map[string]string)
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".ttf") {
				return nil
			}
			name := strings.ToLower(d.Name())
			if _, seen := index[name]; !seen {
				index[name] = path
			}
			return nil
		})
	}
	return index
}

func loadTrueType(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if _, err := truetype.Parse(data); err != nil {
		return nil, err
	}
	return data, nil
}

var (
	sharedMu    sync.Mutex
	sharedFonts = map[string]*FontSet{}
)

// SharedFonts probes fontDir ahead of the system directories and caches the
// result per fontDir, so each directory is walked once per process.
func SharedFonts(fontDir string) *FontSet {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if fonts, ok := sharedFonts[fontDir]; ok {
		return fonts
	}
	dirs := SystemFontDirs()
	if fontDir != "" {
		dirs = append([]string{fontDir}, dirs...)
	}
	fonts := ProbeFonts(dirs)
	sharedFonts[fontDir] = fonts
	return fonts
}
