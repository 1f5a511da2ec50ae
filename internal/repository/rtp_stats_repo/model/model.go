package model

import "time"

// Состояние выплат по валюте
type RTPState struct {
	TotalSessions int     // Сколько всего сессий завершено
	TotalStake    float64 // Сумма всех ставок
	TotalPayout   float64 // Сумма всех выплат

	CurrentRTP float64 // Текущий RTP = (TotalPayout/TotalStake)*100
	TargetRTP  float64 // RTP, который задаёт house edge конфигурации

	Alerts []DriftAlert // Лог отклонений RTP

	EmergencyMode      bool   // Флаг критического отклонения
	EmergencyDirection string // Направление отклонения ("high" или "low")

	SessionWindow []SessionResult // Окно последних сессий для анализа
	WindowRTP     float64         // RTP в окне последних сессий
	WindowSize    int             // Размер окна для анализа RTP
}

// Запись об отклонении RTP
type DriftAlert struct {
	Timestamp time.Time
	Reason    string
	WindowRTP float64
	TargetRTP float64
	Profit    float64
}

// Результат сессии для окна
type SessionResult struct {
	Stake  float64
	Payout float64
	RTP    float64
}
