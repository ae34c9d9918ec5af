package model

import (
	"bytes"
	"encoding/json"
)

// Shape identifies which field of a content payload carries the message.
type Shape int

const (
	// ShapeNone marks a payload with no recognised field. It extracts to
	// empty text.
	ShapeNone Shape = iota
	// ShapeParts is an ordered list of text, image and other parts.
	ShapeParts
	// ShapeText is a flat "text" field.
	ShapeText
	// ShapeResult is a flat "result" field holding tool output.
	ShapeResult
)

func (s Shape) String() string {
	switch s {
	case ShapeParts:
		return "parts"
	case ShapeText:
		return "text"
	case ShapeResult:
		return "result"
	default:
		return "none"
	}
}

// Content is the payload of a message. Exactly one shape is decoded per
// payload, with parts taking precedence over text and text over result.
type Content struct {
	Shape  Shape
	Type   string // content_type as exported, informational only
	Parts  []Part
	Text   string
	Result string
	Raw    json.RawMessage
}

// PartKind identifies an entry of a parts payload.
type PartKind int

const (
	PartText PartKind = iota
	PartImage
	PartOther
)

// Part is one entry of a parts payload.
type Part struct {
	Kind PartKind
	Text string // PartText
	Ref  string // PartImage: image_url or asset_pointer
	Raw  string // PartOther: textual representation of the value
}

// UnmarshalJSON decides the shape of the payload once. Payloads that are not
// objects decode to ShapeNone rather than failing the message.
func (c *Content) UnmarshalJSON(data []byte) error {
	*c = Content{Raw: append(json.RawMessage(nil), data...)}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil
	}
	c.Type = textValue(fields["content_type"])

	if raw, ok := fields["parts"]; ok {
		c.Shape = ShapeParts
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			c.Parts = []Part{otherPart(raw)}
			return nil
		}
		c.Parts = make([]Part, 0, len(items))
		for _, item := range items {
			c.Parts = append(c.Parts, decodePart(item))
		}
		return nil
	}
	if raw, ok := fields["text"]; ok {
		c.Shape = ShapeText
		c.Text = textValue(raw)
		return nil
	}
	if raw, ok := fields["result"]; ok {
		c.Shape = ShapeResult
		c.Result = textValue(raw)
	}
	return nil
}

func decodePart(raw json.RawMessage) Part {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return Part{Kind: PartOther}
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return Part{Kind: PartText, Text: s}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return otherPart(raw)
	}
	if text, ok := fields["text"]; ok {
		return Part{Kind: PartText, Text: textValue(text)}
	}
	if ref, ok := fields["image_url"]; ok {
		return Part{Kind: PartImage, Ref: refValue(ref)}
	}
	if ref, ok := fields["asset_pointer"]; ok {
		return Part{Kind: PartImage, Ref: refValue(ref)}
	}
	return otherPart(raw)
}

func otherPart(raw json.RawMessage) Part {
	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, []byte("null")) {
		return Part{Kind: PartOther}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return Part{Kind: PartOther, Raw: string(trimmed)}
	}
	return Part{Kind: PartOther, Raw: buf.String()}
}

// textValue returns a JSON string as-is, null as empty, and anything else as
// its compact JSON text.
func textValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return otherPart(raw).Raw
}

// refValue accepts both a bare URL string and the {"url": "..."} form.
func refValue(raw json.RawMessage) string {
	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.URL != "" {
		return obj.URL
	}
	return textValue(raw)
}
