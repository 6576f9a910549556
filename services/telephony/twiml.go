package telephony

import "encoding/xml"

// TwiML response document. Only the verbs this service speaks are modeled.
type Response struct {
	XMLName xml.Name `xml:"Response"`
	Say     *Say     `xml:"Say,omitempty"`
	Pause   *Pause   `xml:"Pause,omitempty"`
	Connect *Connect `xml:"Connect,omitempty"`
	Hangup  *Hangup  `xml:"Hangup,omitempty"`
}

type Say struct {
	Voice string `xml:"voice,attr,omitempty"`
	Text  string `xml:",chardata"`
}

type Pause struct {
	Length int `xml:"length,attr"`
}

type Connect struct {
	Stream *Stream `xml:"Stream"`
}

type Stream struct {
	URL string `xml:"url,attr"`
}

type Hangup struct{}

// Render serializes the document with the XML declaration the telephony
// provider expects.
func (r Response) Render() (string, error) {
	body, err := xml.Marshal(r)
	if err != nil {
		return "", err
	}
	return xml.Header + string(body), nil
}

// AnswerTwiML greets the caller and bridges the call audio onto the media
// websocket.
func AnswerTwiML(voice, greeting, streamURL string) Response {
	return Response{
		Say:     &Say{Voice: voice, Text: greeting},
		Connect: &Connect{Stream: &Stream{URL: streamURL}},
	}
}

// SpeakTwiML speaks one assistant turn, then either hangs up or reconnects
// the media stream so the caller can keep talking.
func SpeakTwiML(voice, text, streamURL string, endCall bool) Response {
	r := Response{Say: &Say{Voice: voice, Text: text}}
	if endCall {
		r.Hangup = &Hangup{}
	} else {
		r.Connect = &Connect{Stream: &Stream{URL: streamURL}}
	}
	return r
}
