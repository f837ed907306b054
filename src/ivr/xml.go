package ivr

import "encoding/xml"

// Carrier XML response elements. Element order in the structs matters; the
// carrier executes children top to bottom.

// Response is the root of a carrier XML document.
type Response struct {
	XMLName  xml.Name   `xml:"Response"`
	Children []interface{}
}

// MarshalXML writes the children in insertion order.
func (r Response) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "Response"}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, child := range r.Children {
		if err := e.Encode(child); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// Speak reads text to the caller.
type Speak struct {
	XMLName xml.Name `xml:"Speak"`
	Text    string   `xml:",chardata"`
}

// GetDigits collects keypad input and posts it to Action.
type GetDigits struct {
	XMLName   xml.Name `xml:"GetDigits"`
	Action    string   `xml:"action,attr"`
	Method    string   `xml:"method,attr"`
	Timeout   int      `xml:"timeout,attr"`
	NumDigits int      `xml:"numDigits,attr"`
	Speak     *Speak
}

// Stream bridges the call's audio to a websocket.
type Stream struct {
	XMLName       xml.Name `xml:"Stream"`
	StreamTimeout int      `xml:"streamTimeout,attr"`
	KeepCallAlive bool     `xml:"keepCallAlive,attr"`
	Bidirectional bool     `xml:"bidirectional,attr"`
	ContentType   string   `xml:"contentType,attr"`
	URL           string   `xml:",chardata"`
}
