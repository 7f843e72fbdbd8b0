package polymarket

import "encoding/json"

// DTOs raw de las APIs públicas de Polymarket. Solo se usan dentro de este
// paquete; la conversión a domain entities se hace en mapping.go.

// --- Gamma API ---

// gammaMarketsResponse es la respuesta de GET /markets de Gamma.
type gammaMarketsResponse []gammaMarket

// gammaMarket es un mercado binario de Gamma. Gamma devuelve muchos campos
// numéricos como strings JSON, usamos json.Number.
type gammaMarket struct {
	ID             string      `json:"id"`
	ConditionID    string      `json:"conditionId"`
	Question       string      `json:"question"`
	Slug           string      `json:"slug"`
	EndDate        string      `json:"endDate"`
	LastTradePrice json.Number `json:"lastTradePrice"`
	BestBid        json.Number `json:"bestBid"`
	BestAsk        json.Number `json:"bestAsk"`
	Volume24h      json.Number `json:"volume24hr"`
	OneDayChange   json.Number `json:"oneDayPriceChange"`
	OneWeekChange  json.Number `json:"oneWeekPriceChange"`
	Active         bool        `json:"active"`
	Closed         bool        `json:"closed"`
}

// --- Data API ---

// rawDataTrade es un trade de GET /trades de la Data API.
type rawDataTrade struct {
	ProxyWallet     string      `json:"proxyWallet"`
	ConditionID     string      `json:"conditionId"`
	Slug            string      `json:"slug"`
	Side            string      `json:"side"`
	Outcome         string      `json:"outcome"`
	Size            json.Number `json:"size"`
	Price           json.Number `json:"price"`
	Timestamp       json.Number `json:"timestamp"`
	TransactionHash string      `json:"transactionHash"`
}
