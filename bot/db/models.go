package db

import (
	"github.com/flexbet/FlexCodeBot-Go/bot"
	"gorm.io/gorm"
)

// ProcessedMessageModel marks one inbound message as handled. The unique
// index makes MarkProcessed idempotent across restarts.
type ProcessedMessageModel struct {
	gorm.Model
	Transport string `gorm:"not null;default:'';index:idx_transport_kind_message,unique"`
	Kind      string `gorm:"not null;default:'';index:idx_transport_kind_message,unique"`
	MessageID string `gorm:"not null;default:'';index:idx_transport_kind_message,unique"`
}

func (ProcessedMessageModel) TableName() string {
	return "processed_messages"
}

// ConversionRecordModel mirrors the conversion_records history schema.
type ConversionRecordModel struct {
	gorm.Model
	Code           string `gorm:"not null;index"`
	SourcePlatform string
	TargetPlatform string
	ConvertedCode  string
	Status         string `gorm:"not null;default:'ok'"`
	Transport      string `gorm:"index"`
	MessageID      string
	AuthorID       string
	Simulated      bool
}

func (ConversionRecordModel) TableName() string {
	return "conversion_records"
}

// BotStatModel stores aggregated bot statistics.
type BotStatModel struct {
	gorm.Model
	Key   string `gorm:"uniqueIndex;not null"`
	Value int64
}

func (BotStatModel) TableName() string {
	return "bot_stats"
}

func toInternal(model ConversionRecordModel) bot.ConversionRecord {
	return bot.ConversionRecord{
		ID:             model.ID,
		CreatedAt:      model.CreatedAt,
		Code:           model.Code,
		SourcePlatform: model.SourcePlatform,
		TargetPlatform: model.TargetPlatform,
		ConvertedCode:  model.ConvertedCode,
		Status:         model.Status,
		Transport:      model.Transport,
		MessageID:      model.MessageID,
		AuthorID:       model.AuthorID,
		Simulated:      model.Simulated,
	}
}

func toModel(rec *bot.ConversionRecord) *ConversionRecordModel {
	if rec == nil {
		return &ConversionRecordModel{}
	}

	model := &ConversionRecordModel{
		Code:           rec.Code,
		SourcePlatform: rec.SourcePlatform,
		TargetPlatform: rec.TargetPlatform,
		ConvertedCode:  rec.ConvertedCode,
		Status:         rec.Status,
		Transport:      rec.Transport,
		MessageID:      rec.MessageID,
		AuthorID:       rec.AuthorID,
		Simulated:      rec.Simulated,
	}

	if rec.ID != 0 {
		model.ID = rec.ID
	}
	if !rec.CreatedAt.IsZero() {
		model.CreatedAt = rec.CreatedAt
	}

	return model
}
