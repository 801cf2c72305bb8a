package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flexbet/FlexCodeBot-Go/bot"
	"github.com/flexbet/FlexCodeBot-Go/bot/convert"
	"github.com/flexbet/FlexCodeBot-Go/bot/metrics"
)

// Outcomes of processing one inbound message.
const (
	OutcomeNoCodes       = "no_codes"
	OutcomeClarification = "needs_clarification"
	OutcomeConverted     = "converted"
)

// Message kinds a session handles.
const (
	KindMention = "mention"
	KindDM      = "dm"
)

// TripleExtractor resolves raw message text into conversion triples.
type TripleExtractor interface {
	Extract(ctx context.Context, text string) []bot.ConversionTriple
}

// Inbound is one message handed to the responder, stripped down to what the
// pipeline needs. Transport and Kind tag the persisted history and metrics.
type Inbound struct {
	Transport string
	Kind      string
	MessageID string
	AuthorID  string
	Text      string
}

// Conversion is the per-triple outcome, shaped for JSON responses from the
// ops API.
type Conversion struct {
	Code           string `json:"code"`
	SourcePlatform string `json:"source_platform"`
	TargetPlatform string `json:"target_platform"`
	ConvertedCode  string `json:"converted_code,omitempty"`
	Message        string `json:"message,omitempty"`
	Success        bool   `json:"success"`
	Simulated      bool   `json:"simulated,omitempty"`
}

// Result is everything Process produced for one inbound message. Reply is
// ready to deliver, before transport-specific truncation.
type Result struct {
	Outcome     string
	Reply       string
	Triples     []bot.ConversionTriple
	Conversions []Conversion
}

// Responder turns inbound text into a reply: extract triples, ask for
// clarification when platforms are missing, otherwise convert every triple
// and assemble the verdicts into one message. Conversion attempts are
// recorded in history and metrics regardless of delivery.
type Responder struct {
	extractor TripleExtractor
	converter bot.CodeConverter
	repo      bot.MessageRepository
	metrics   *metrics.Collector
	log       bot.Logger
}

// NewResponder wires the processing pipeline. repo and collector may be nil;
// history and metrics are then skipped.
func NewResponder(extractor TripleExtractor, converter bot.CodeConverter, repo bot.MessageRepository, collector *metrics.Collector, log bot.Logger) *Responder {
	return &Responder{
		extractor: extractor,
		converter: converter,
		repo:      repo,
		metrics:   collector,
		log:       log,
	}
}

// Process runs the pipeline for one message. It only fails on programmer
// error; converter and repository trouble surface inside the reply and the
// history rows instead.
func (r *Responder) Process(ctx context.Context, in Inbound) (*Result, error) {
	if r.extractor == nil || r.converter == nil {
		return nil, errors.New("monitor: responder not wired")
	}

	triples := r.extractor.Extract(ctx, in.Text)
	if len(triples) == 0 {
		return &Result{Outcome: OutcomeNoCodes, Reply: noCodesMsg}, nil
	}

	var incomplete []string
	for _, t := range triples {
		if t.Source == nil || t.Target == nil {
			incomplete = append(incomplete, t.Code)
		}
	}
	if len(incomplete) > 0 {
		return &Result{
			Outcome: OutcomeClarification,
			Reply:   fmt.Sprintf(clarificationMsg, strings.Join(incomplete, ", ")),
			Triples: triples,
		}, nil
	}

	parts := make([]string, 0, len(triples))
	conversions := make([]Conversion, 0, len(triples))
	for _, t := range triples {
		conv := r.convertOne(ctx, in, t)
		conversions = append(conversions, conv)
		if conv.Success {
			part := fmt.Sprintf(convertedPart, conv.SourcePlatform, conv.Code, conv.TargetPlatform, conv.ConvertedCode)
			if conv.Message != "" {
				part += " (" + conv.Message + ")"
			}
			parts = append(parts, part)
		} else {
			parts = append(parts, fmt.Sprintf(failedPart, conv.SourcePlatform, conv.Code, conv.Message))
		}
	}

	return &Result{
		Outcome:     OutcomeConverted,
		Reply:       fmt.Sprintf(convertedReply, strings.Join(parts, "; ")),
		Triples:     triples,
		Conversions: conversions,
	}, nil
}

// convertOne converts a single triple and records the attempt. Replies use
// the names as the author wrote them; history and metrics use canonical
// registry keys.
func (r *Responder) convertOne(ctx context.Context, in Inbound, t bot.ConversionTriple) Conversion {
	conv := Conversion{
		Code:           t.Code,
		SourcePlatform: t.Source.Name,
		TargetPlatform: t.Target.Name,
	}
	rec := &bot.ConversionRecord{
		Code:           t.Code,
		SourcePlatform: t.Source.Key,
		TargetPlatform: t.Target.Key,
		Transport:      in.Transport,
		MessageID:      in.MessageID,
		AuthorID:       in.AuthorID,
	}

	start := time.Now()
	result, err := r.converter.Convert(ctx, bot.ConversionRequest{
		Code:   t.Code,
		Source: t.Source.Name,
		Target: t.Target.Name,
	})
	if err != nil {
		conv.Message = conversionMessage(err)
		rec.Status = "failed"
		r.metrics.RecordConversion(t.Source.Key, t.Target.Key, "failed", time.Since(start))
		if r.log != nil {
			r.log.Warn("conversion failed",
				"code", t.Code, "from", t.Source.Key, "to", t.Target.Key, "err", err)
		}
	} else {
		conv.Success = true
		conv.ConvertedCode = result.ConvertedCode
		conv.Message = result.Message
		conv.Simulated = result.Simulated
		rec.ConvertedCode = result.ConvertedCode
		rec.Status = "ok"
		rec.Simulated = result.Simulated
		r.metrics.RecordConversion(t.Source.Key, t.Target.Key, "ok", time.Since(start))
	}

	r.record(ctx, rec)
	return conv
}

func (r *Responder) record(ctx context.Context, rec *bot.ConversionRecord) {
	if r.repo == nil {
		return
	}
	if err := r.repo.SaveConversion(ctx, rec); err != nil && r.log != nil {
		r.log.Error("save conversion history failed", "code", rec.Code, "err", err)
	}
	if err := r.repo.IncrStat(ctx, "conversions."+rec.Status, 1); err != nil && r.log != nil {
		r.log.Error("bump conversion counter failed", "err", err)
	}
}

// conversionMessage extracts the author-facing text from a converter error.
func conversionMessage(err error) string {
	var convErr *convert.ConversionError
	if errors.As(err, &convErr) {
		return convErr.UserMessage()
	}
	return err.Error()
}
