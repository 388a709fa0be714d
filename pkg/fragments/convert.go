package fragments

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"mime"

	"github.com/yuin/goldmark"
	_ "golang.org/x/image/webp"
	"gopkg.in/yaml.v3"
)

// conversionMatrix maps each supported source type to the set of types it
// can be converted into, always including itself. The table is not
// symmetric. image/webp appears as a source only (plus identity) because
// there is no pure-Go webp encoder.
var conversionMatrix = map[string][]string{
	TypePlain:    {TypePlain},
	TypeMarkdown: {TypeMarkdown, TypeHTML, TypePlain},
	TypeHTML:     {TypeHTML, TypePlain},
	TypeCSV:      {TypeCSV, TypePlain, TypeJSON},
	TypeJSON:     {TypeJSON, TypeYAML, TypePlain},
	TypeYAML:     {TypeYAML, TypePlain},
	TypePNG:      {TypePNG, TypeJPEG, TypeGIF},
	TypeJPEG:     {TypePNG, TypeJPEG, TypeGIF},
	TypeWebP:     {TypeWebP, TypePNG, TypeJPEG, TypeGIF},
	TypeGIF:      {TypePNG, TypeJPEG, TypeGIF},
}

// extensionTypes maps a client-requested file extension to the media type it
// stands for. Used only at the system boundary; the conversion matrix itself
// deals in media types.
var extensionTypes = map[string]string{
	"txt":      TypePlain,
	"md":       TypeMarkdown,
	"markdown": TypeMarkdown,
	"html":     TypeHTML,
	"csv":      TypeCSV,
	"json":     TypeJSON,
	"yaml":     TypeYAML,
	"yml":      TypeYAML,
	"png":      TypePNG,
	"jpg":      TypeJPEG,
	"jpeg":     TypeJPEG,
	"webp":     TypeWebP,
	"gif":      TypeGIF,
}

// Formats returns the media types reachable from mimeType, including
// mimeType itself. Unknown types yield an empty slice.
func Formats(mimeType string) []string {
	formats, ok := conversionMatrix[mimeType]
	if !ok {
		return nil
	}
	out := make([]string, len(formats))
	copy(out, formats)
	return out
}

// CanConvert reports whether targetType is reachable from sourceType.
// Parameters on either type are stripped before the lookup.
func CanConvert(sourceType, targetType string) bool {
	source := stripParams(sourceType)
	target := stripParams(targetType)
	for _, t := range conversionMatrix[source] {
		if t == target {
			return true
		}
	}
	return false
}

// TypeForExtension resolves a file extension (without the dot) to its media
// type.
func TypeForExtension(ext string) (string, bool) {
	t, ok := extensionTypes[ext]
	return t, ok
}

// Convert transforms data from sourceType to targetType.
//
// Identity conversions return the input byte-for-byte. Conversions to
// text/plain return the source bytes unchanged under the new label; markup
// is not stripped. Structural conversions (CSV/JSON/YAML) fail with a
// *ConversionError when the source data is malformed, as do image
// conversions on undecodable input. An unreachable source/target pair fails
// with ErrUnsupportedConversion.
func Convert(data []byte, sourceType, targetType string) ([]byte, error) {
	source := stripParams(sourceType)
	target := stripParams(targetType)

	if !CanConvert(source, target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrUnsupportedConversion, source, target)
	}

	if source == target {
		return bytes.Clone(data), nil
	}

	switch {
	case target == TypePlain:
		return bytes.Clone(data), nil
	case source == TypeMarkdown && target == TypeHTML:
		return markdownToHTML(data)
	case source == TypeCSV && target == TypeJSON:
		return csvToJSON(data)
	case source == TypeJSON && target == TypeYAML:
		return jsonToYAML(data)
	case source == TypeYAML && target == TypeJSON:
		return yamlToJSON(data)
	case isImageType(source) && isImageType(target):
		return transcodeImage(data, source, target)
	}

	return nil, fmt.Errorf("%w: %s -> %s", ErrUnsupportedConversion, source, target)
}

func stripParams(mediaType string) string {
	parsed, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return mediaType
	}
	return parsed
}

func isImageType(mediaType string) bool {
	switch mediaType {
	case TypePNG, TypeJPEG, TypeWebP, TypeGIF:
		return true
	}
	return false
}

func markdownToHTML(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert(data, &buf); err != nil {
		return nil, &ConversionError{Source: TypeMarkdown, Target: TypeHTML, Err: err}
	}
	return buf.Bytes(), nil
}

// csvToJSON turns the header row into object keys and each remaining row
// into one object.
func csvToJSON(data []byte) ([]byte, error) {
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, &ConversionError{Source: TypeCSV, Target: TypeJSON, Err: err}
	}
	if len(records) == 0 {
		return []byte("[]"), nil
	}

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(header))
		for i, field := range record {
			if i < len(header) {
				row[header[i]] = field
			}
		}
		rows = append(rows, row)
	}

	out, err := json.Marshal(rows)
	if err != nil {
		return nil, &ConversionError{Source: TypeCSV, Target: TypeJSON, Err: err}
	}
	return out, nil
}

func jsonToYAML(data []byte) ([]byte, error) {
	var value interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, &ConversionError{Source: TypeJSON, Target: TypeYAML, Err: err}
	}
	out, err := yaml.Marshal(value)
	if err != nil {
		return nil, &ConversionError{Source: TypeJSON, Target: TypeYAML, Err: err}
	}
	return out, nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var value interface{}
	if err := yaml.Unmarshal(data, &value); err != nil {
		return nil, &ConversionError{Source: TypeYAML, Target: TypeJSON, Err: err}
	}
	out, err := json.Marshal(value)
	if err != nil {
		return nil, &ConversionError{Source: TypeYAML, Target: TypeJSON, Err: err}
	}
	return out, nil
}

func transcodeImage(data []byte, sourceType, targetType string) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &ConversionError{Source: sourceType, Target: targetType, Err: err}
	}

	var buf bytes.Buffer
	switch targetType {
	case TypePNG:
		err = png.Encode(&buf, img)
	case TypeJPEG:
		err = jpeg.Encode(&buf, img, nil)
	case TypeGIF:
		err = gif.Encode(&buf, img, nil)
	default:
		return nil, fmt.Errorf("%w: %s -> %s", ErrUnsupportedConversion, sourceType, targetType)
	}
	if err != nil {
		return nil, &ConversionError{Source: sourceType, Target: targetType, Err: err}
	}

	return buf.Bytes(), nil
}
