package core

import "encoding/xml"

// Message is one message received from a queue.
type Message struct {
	ID string
	// ReceiptHandle is only ever handed back to the queue to delete the message.
	ReceiptHandle string
	Body          string
}

// DrainResult is the outcome of draining one queue, in retrieval order.
type DrainResult struct {
	XMLName  xml.Name `xml:"drainResult"`
	Queue    string   `xml:"queue,attr"`
	Messages []string `xml:"message"`
}

// Item is a single table item keyed by attribute name.
type Item map[string]any
