package validators

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
)

const (
	MaxFileNameBytes = 255
	FallbackFileName = "unnamed_file"
)

const windowsIllegalChars = `<>:"/\|?*`

var (
	repeatedDots   = regexp.MustCompile(`\.{2,}`)
	repeatedSpaces = regexp.MustCompile(` {2,}`)

	reservedDeviceNames = map[string]bool{
		"CON": true, "PRN": true, "AUX": true, "NUL": true,
		"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
		"COM6": true, "COM7": true, "COM8": true, "COM9": true,
		"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
		"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
	}
)

// contentTypeExtensions maps known MIME types to the extensions they may
// carry. Types missing from the map are not cross-checked.
var contentTypeExtensions = map[string][]string{
	"image/jpeg":       {".jpg", ".jpeg", ".jfif"},
	"image/png":        {".png"},
	"image/gif":        {".gif"},
	"image/webp":       {".webp"},
	"image/bmp":        {".bmp"},
	"image/tiff":       {".tif", ".tiff"},
	"image/avif":       {".avif"},
	"image/heic":       {".heic"},
	"image/heif":       {".heif", ".heic"},
	"image/svg+xml":    {".svg"},
	"video/mp4":        {".mp4", ".m4v"},
	"video/quicktime":  {".mov", ".qt"},
	"video/x-m4v":      {".m4v"},
	"video/3gpp":       {".3gp"},
	"video/webm":       {".webm"},
	"video/x-msvideo":  {".avi"},
	"audio/mpeg":       {".mp3"},
	"audio/wav":        {".wav"},
	"application/pdf":  {".pdf"},
	"application/zip":  {".zip"},
	"application/json": {".json"},
	"text/plain":       {".txt"},
	"text/csv":         {".csv"},
}

type signature struct {
	offset int
	magic  []byte
}

var magicSignatures = map[string][][]signature{
	"image/jpeg":      {{{0, []byte{0xFF, 0xD8, 0xFF}}}},
	"image/png":       {{{0, []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}}}},
	"image/gif":       {{{0, []byte("GIF87a")}}, {{0, []byte("GIF89a")}}},
	"image/webp":      {{{0, []byte("RIFF")}, {8, []byte("WEBP")}}},
	"image/bmp":       {{{0, []byte("BM")}}},
	"image/tiff":      {{{0, []byte{'I', 'I', 0x2A, 0x00}}}, {{0, []byte{'M', 'M', 0x00, 0x2A}}}},
	"application/pdf": {{{0, []byte("%PDF-")}}},
	"application/zip": {{{0, []byte{'P', 'K', 0x03, 0x04}}}, {{0, []byte{'P', 'K', 0x05, 0x06}}}},
}

var mp4Brands = []string{
	"isom", "iso2", "iso3", "iso4", "iso5", "iso6", "mp41", "mp42", "mp71",
	"avc1", "dash", "mmp4", "msnv", "f4v ", "M4V ", "M4VH", "M4VP",
}

// isoBrands lists the ftyp brands accepted per ISO base media file format
// type. A file passes if its major brand or any compatible brand is listed.
var isoBrands = map[string][]string{
	"video/mp4":       mp4Brands,
	"video/x-m4v":     mp4Brands,
	"video/quicktime": {"qt  "},
	"video/3gpp":      {"3gp4", "3gp5", "3gp6", "3gp7", "3ge6", "3ge7", "3gg6", "isom"},
	"image/avif":      {"avif", "avis"},
	"image/heic":      {"heic", "heix", "hevc", "hevx", "heim", "heis"},
	"image/heif":      {"mif1", "msf1", "heic", "heix", "hevc", "hevx"},
}

// NormalizeContentType lowercases a MIME type and strips parameters.
func NormalizeContentType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

func IsImageContentType(contentType string) bool {
	return strings.HasPrefix(NormalizeContentType(contentType), "image/")
}

func IsVideoContentType(contentType string) bool {
	return strings.HasPrefix(NormalizeContentType(contentType), "video/")
}

// ValidateFileName rejects names that are empty, traverse paths, contain
// control or Windows-illegal characters, or name a reserved device.
func ValidateFileName(name string) error {
	if strings.TrimSpace(name) == "" || !utf8.ValidString(name) {
		return newValidationError(KindInvalidFileName)
	}

	if name == "." || name == ".." || strings.Contains(name, "../") || strings.Contains(name, `..\`) {
		return newValidationError(KindInvalidFileName)
	}

	for _, r := range name {
		if isControl(r) || strings.ContainsRune(windowsIllegalChars, r) {
			return newValidationError(KindInvalidFileName)
		}
	}

	if isReservedDeviceName(name) {
		return newValidationError(KindInvalidFileName)
	}

	return nil
}

// SanitizeFileName produces a storage-safe name. It is idempotent and never
// returns an empty string.
func SanitizeFileName(name string) string {
	current := name
	for i := 0; i < 8; i++ {
		next := sanitizePass(current)
		if next == current {
			break
		}
		current = next
	}

	if current == "" {
		return FallbackFileName
	}
	return current
}

func sanitizePass(name string) string {
	name = strings.ToValidUTF8(name, "")

	name = strings.Map(func(r rune) rune {
		if isControl(r) || strings.ContainsRune(windowsIllegalChars, r) {
			return -1
		}
		return r
	}, name)

	name = repeatedDots.ReplaceAllString(name, ".")
	name = repeatedSpaces.ReplaceAllString(name, " ")
	name = strings.Trim(name, ". ")

	if name == "" {
		return FallbackFileName
	}

	if isReservedDeviceName(name) {
		name = "_" + name
	}

	return truncatePreservingExtension(name, MaxFileNameBytes)
}

func truncatePreservingExtension(name string, limit int) string {
	if len(name) <= limit {
		return name
	}

	ext := filepath.Ext(name)
	if len(ext) >= limit/2 {
		ext = ""
	}

	base := truncateBytes(strings.TrimSuffix(name, ext), limit-len(ext))
	base = strings.TrimRight(base, ". ")
	return base + ext
}

// truncateBytes cuts s to at most n bytes on a rune boundary.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7F
}

func isReservedDeviceName(name string) bool {
	base := strings.ToUpper(strings.TrimSpace(name))
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return reservedDeviceNames[strings.TrimSpace(base)]
}

// ValidateContentTypeExtension checks that fileName's extension is one the
// declared content type may carry. Unknown content types pass.
func ValidateContentTypeExtension(contentType, fileName string) error {
	allowed, known := contentTypeExtensions[NormalizeContentType(contentType)]
	if !known {
		return nil
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	for _, candidate := range allowed {
		if ext == candidate {
			return nil
		}
	}

	return newValidationError(KindContentTypeMismatch)
}

// ValidateMagicBytes checks the leading bytes of data against the declared
// content type. ISO base media types are checked structurally through their
// ftyp box and the common image and document types against a fixed table.
// Other types are cross-checked with mimetype detection; types mimetype does
// not know pass.
func ValidateMagicBytes(data []byte, contentType string) error {
	ct := NormalizeContentType(contentType)

	if brands, ok := isoBrands[ct]; ok {
		if hasFtypBrand(data, brands) {
			return nil
		}
		return newValidationError(KindMagicBytesMismatch)
	}

	alternatives, ok := magicSignatures[ct]
	if !ok {
		return detectedMatches(data, ct)
	}

	for _, sigs := range alternatives {
		if matchesAll(data, sigs) {
			return nil
		}
	}

	return newValidationError(KindMagicBytesMismatch)
}

func matchesAll(data []byte, sigs []signature) bool {
	for _, sig := range sigs {
		end := sig.offset + len(sig.magic)
		if len(data) < end || !bytes.Equal(data[sig.offset:end], sig.magic) {
			return false
		}
	}
	return true
}

// hasFtypBrand parses the leading ftyp box: a 32-bit size, the "ftyp" type,
// a major brand, a minor version, then compatible brands up to size.
func hasFtypBrand(data []byte, allowed []string) bool {
	if len(data) < 16 || string(data[4:8]) != "ftyp" {
		return false
	}

	size := int(binary.BigEndian.Uint32(data[0:4]))
	if size < 16 || size%4 != 0 {
		return false
	}
	if size > len(data) {
		size = len(data) - len(data)%4
	}

	brands := []string{string(data[8:12])}
	for off := 16; off+4 <= size; off += 4 {
		brands = append(brands, string(data[off:off+4]))
	}

	for _, brand := range brands {
		for _, candidate := range allowed {
			if brand == candidate {
				return true
			}
		}
	}
	return false
}

// ValidateFileSize checks 0 < size <= max. A non-positive max disables the
// upper bound.
func ValidateFileSize(size, max int64) error {
	if size <= 0 || (max > 0 && size > max) {
		return newValidationError(KindInvalidRequest)
	}
	return nil
}

// detectedMatches rejects data that mimetype positively identifies as a
// format unrelated to the declared one. Related means one type is the other
// or an ancestor of it, so generic results such as text/plain or
// application/octet-stream never reject.
func detectedMatches(data []byte, ct string) error {
	declared := mimetype.Lookup(ct)
	if declared == nil {
		return nil
	}

	detected := mimetype.Detect(data)
	if isDescendant(detected, ct) || isDescendant(declared, detected.String()) {
		return nil
	}

	return newValidationError(KindMagicBytesMismatch)
}

func isDescendant(m *mimetype.MIME, ancestor string) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is(ancestor) {
			return true
		}
	}
	return false
}
