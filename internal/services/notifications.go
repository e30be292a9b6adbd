package services

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"tribe-fitness/internal/database"
	"tribe-fitness/internal/health"
	"tribe-fitness/internal/rewards"
	"tribe-fitness/internal/utils"
)

// NotificationSender delivers pushes to the user, e.g. the Telegram bot.
type NotificationSender interface {
	SendMessage(text string) error
	SendRewardOffer(item rewards.Item, balance int) error
}

// SnapshotSource is the read side of the health state.
type SnapshotSource interface {
	Snapshot() health.Snapshot
}

type NotificationService struct {
	sender    NotificationSender
	source    SnapshotSource
	analytics *AnalyticsService
	catalog   *rewards.Catalog
	logger    *zap.Logger
}

func NewNotificationService(sender NotificationSender, source SnapshotSource, analytics *AnalyticsService, catalog *rewards.Catalog, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		sender:    sender,
		source:    source,
		analytics: analytics,
		catalog:   catalog,
		logger:    logger,
	}
}

// SendDailySummary pushes today's counters and, when the balance allows it,
// the most expensive reward the user can afford.
func (ns *NotificationService) SendDailySummary() error {
	snap := ns.source.Snapshot()
	if err := ns.sender.SendMessage(FormatDailySummary(snap)); err != nil {
		ns.logger.Warn("daily summary not sent", zap.Error(err))
		return err
	}

	if ns.catalog == nil {
		return nil
	}
	item, ok := bestAffordable(ns.catalog.Items(), snap.Tokens)
	if !ok {
		return nil
	}
	if err := ns.sender.SendRewardOffer(item, snap.Tokens); err != nil {
		ns.logger.Warn("reward offer not sent", zap.String("item", item.ID), zap.Error(err))
		return err
	}
	return nil
}

func (ns *NotificationService) SendWeeklyReport() error {
	activity, err := ns.analytics.GetWeeklyActivity()
	if err != nil {
		ns.logger.Warn("weekly activity", zap.Error(err))
		return err
	}
	if err := ns.sender.SendMessage(FormatWeeklyReport(activity)); err != nil {
		ns.logger.Warn("weekly report not sent", zap.Error(err))
		return err
	}
	return nil
}

func FormatDailySummary(snap health.Snapshot) string {
	date := ""
	if n := len(snap.DailySteps); n > 0 {
		date = snap.DailySteps[n-1].Date
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>Today %s</b>\n\n", date)
	fmt.Fprintf(&b, "👟 Steps: %d\n", snap.Steps)
	fmt.Fprintf(&b, "📏 Distance: %s\n", utils.FormatDistance(snap.DistanceMeters))
	fmt.Fprintf(&b, "🔥 Calories: %d kcal\n", snap.Calories)
	fmt.Fprintf(&b, "🪙 Tokens: %d\n", snap.Tokens)

	if snap.Steps >= ActiveDaySteps {
		b.WriteString("\n🎯 Step goal reached, nice work!")
	} else {
		fmt.Fprintf(&b, "\n🌅 %d steps to go for an active day. Tomorrow is a fresh start!", ActiveDaySteps-snap.Steps)
	}
	return b.String()
}

func FormatWeeklyReport(a *database.WeeklyActivity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 <b>Week %d</b> (%s to %s)\n\n", a.WeekNumber, a.StartDate, a.EndDate)
	fmt.Fprintf(&b, "👟 Steps: %d\n", a.TotalSteps)
	fmt.Fprintf(&b, "📏 Distance: %s\n", utils.FormatDistance(a.TotalDistance))
	fmt.Fprintf(&b, "🔥 Calories: %d kcal\n", a.TotalCalories)
	fmt.Fprintf(&b, "✅ Active days: %d/7\n", a.ActiveDays)
	fmt.Fprintf(&b, "🏋️ Workouts: %d\n", a.Workouts)
	fmt.Fprintf(&b, "🪙 Tokens: +%d / -%d\n", a.TokensEarned, a.TokensSpent)
	if a.Insights != "" {
		fmt.Fprintf(&b, "\n<b>Insights</b>\n%s", a.Insights)
	}
	return b.String()
}

func bestAffordable(items []rewards.Item, balance int) (rewards.Item, bool) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].Cost > items[j].Cost })
	for _, it := range items {
		if it.Cost <= balance {
			return it, true
		}
	}
	return rewards.Item{}, false
}
