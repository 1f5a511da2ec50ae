package rtp_stats_repo

import (
	repoModel "cashflip/internal/repository/rtp_stats_repo/model"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// minSessionsToCheck Количество сессий, после которого начинаем сравнивать RTP с целевым
	minSessionsToCheck = 25
	// periodSessionsToCheck Периодичность проверки (каждые N сессий)
	periodSessionsToCheck = 25
	// maxAllowedRTPDeviation Отклонение RTP в окне от целевого, после которого пишем предупреждение
	maxAllowedRTPDeviation = 5.0 // процентные пункты
	// критическое отклонение RTP для аварийного режима
	criticalRTPDeviation = 10.0
	// отклонение, при котором аварийный режим снимается
	normalRTPDeviation = 5.0
	// defaultWindowSize размер окна по умолчанию
	defaultWindowSize = 500
	// maxAlerts сколько последних предупреждений храним
	maxAlerts = 100
)

// StatsRepo хранит состояние выплат по каждой валюте в памяти процесса
type StatsRepo struct {
	mtx        sync.RWMutex
	states     map[string]*repoModel.RTPState
	windowSize int
	log        *zap.Logger
}

// NewRTPStatsRepository Конструктор; windowSize <= 0 - размер окна по умолчанию
func NewRTPStatsRepository(log *zap.Logger, windowSize int) *StatsRepo {
	if windowSize <= 0 {
		windowSize = defaultWindowSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &StatsRepo{
		states:     make(map[string]*repoModel.RTPState),
		windowSize: windowSize,
		log:        log,
	}
}

// State Копия состояния валюты
func (r *StatsRepo) State(currency string) repoModel.RTPState {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	st, ok := r.states[currency]
	if !ok {
		return repoModel.RTPState{WindowSize: r.windowSize}
	}
	res := *st
	res.SessionWindow = append([]repoModel.SessionResult(nil), st.SessionWindow...)
	res.Alerts = append([]repoModel.DriftAlert(nil), st.Alerts...)
	return res
}

// UpdateState Обновление состояния после завершения сессии
func (r *StatsRepo) UpdateState(currency string, stake, payout float64) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	st := r.stateLocked(currency)

	st.TotalSessions++
	st.TotalStake += stake
	st.TotalPayout += payout
	if st.TotalStake > 0 {
		st.CurrentRTP = st.TotalPayout / st.TotalStake * 100
	}

	sessionRTP := 0.0
	if stake > 0 {
		sessionRTP = payout / stake * 100
	}
	st.SessionWindow = append(st.SessionWindow, repoModel.SessionResult{
		Stake:  stake,
		Payout: payout,
		RTP:    sessionRTP,
	})

	// Поддерживаем размер окна
	if len(st.SessionWindow) > st.WindowSize {
		st.SessionWindow = st.SessionWindow[1:]
	}

	var windowStake, windowPayout float64
	for _, s := range st.SessionWindow {
		windowStake += s.Stake
		windowPayout += s.Payout
	}

	if windowStake > 0 {
		st.WindowRTP = windowPayout / windowStake * 100
	} else {
		st.WindowRTP = 0
	}
}

// SmartCheck сравнивает RTP окна с целевым и пишет предупреждение при отклонении.
// Возвращает true, если отклонение зафиксировано на этой проверке
func (r *StatsRepo) SmartCheck(currency string, targetRTP float64) bool {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	st := r.stateLocked(currency)
	st.TargetRTP = targetRTP

	if st.TotalSessions < minSessionsToCheck || st.TotalSessions%periodSessionsToCheck != 0 {
		return false
	}

	// 1. Критическое отклонение
	if r.emergencyCheck(st) {
		r.alert(currency, st, "критическое отклонение RTP")
		return true
	}
	// 2. Обычное отклонение
	if !st.EmergencyMode && math.Abs(st.WindowRTP-st.TargetRTP) > maxAllowedRTPDeviation {
		r.alert(currency, st, "отклонение RTP")
		return true
	}
	return false
}

// emergencyCheck включает и снимает аварийный режим
func (r *StatsRepo) emergencyCheck(st *repoModel.RTPState) bool {
	absoluteDiff := math.Abs(st.WindowRTP - st.TargetRTP)

	if absoluteDiff > criticalRTPDeviation {
		st.EmergencyMode = true
		if st.WindowRTP > st.TargetRTP {
			st.EmergencyDirection = "high"
		} else {
			st.EmergencyDirection = "low"
		}
		return true
	}
	if st.EmergencyMode && absoluteDiff < normalRTPDeviation {
		st.EmergencyMode = false
		st.EmergencyDirection = ""
	}
	return false
}

func (r *StatsRepo) alert(currency string, st *repoModel.RTPState, reason string) {
	profit := st.TotalStake - st.TotalPayout
	r.log.Warn(reason,
		zap.String("currency", currency),
		zap.Float64("window_rtp", st.WindowRTP),
		zap.Float64("target_rtp", st.TargetRTP),
		zap.Float64("current_rtp", st.CurrentRTP),
		zap.String("direction", st.EmergencyDirection),
		zap.Float64("profit", profit),
	)

	st.Alerts = append(st.Alerts, repoModel.DriftAlert{
		Timestamp: time.Now(),
		Reason:    reason,
		WindowRTP: st.WindowRTP,
		TargetRTP: st.TargetRTP,
		Profit:    profit,
	})
	if len(st.Alerts) > maxAlerts {
		st.Alerts = st.Alerts[1:]
	}
}

func (r *StatsRepo) stateLocked(currency string) *repoModel.RTPState {
	st, ok := r.states[currency]
	if !ok {
		st = &repoModel.RTPState{
			WindowSize:    r.windowSize,
			SessionWindow: make([]repoModel.SessionResult, 0),
			Alerts:        make([]repoModel.DriftAlert, 0),
		}
		r.states[currency] = st
	}
	return st
}
