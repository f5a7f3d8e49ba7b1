package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"candlecore/internal/aggregate"
	"candlecore/internal/indicator"
	"candlecore/internal/model"
	"candlecore/internal/series"
)

// startAPI launches the query HTTP server in a goroutine.
func (svc *Service) startAPI(ctx context.Context) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/series", svc.handleSeries)
	mux.HandleFunc("/api/v1/candles", svc.handleCandles)
	mux.HandleFunc("/api/v1/daily", svc.handleDaily)
	mux.HandleFunc("/api/v1/latest", svc.handleLatest)
	mux.HandleFunc("/api/v1/indicators/sma", svc.handleIndicator(indicator.KindSMA))
	mux.HandleFunc("/api/v1/indicators/ema", svc.handleIndicator(indicator.KindEMA))
	mux.HandleFunc("/api/v1/indicators/rsi", svc.handleIndicator(indicator.KindRSI))
	mux.HandleFunc("/api/v1/indicators/bollinger", svc.handleBollinger)
	mux.HandleFunc("/api/v1/indicators/change", svc.handleChange)

	svc.apiSrv = &http.Server{Addr: svc.cfg.HTTPAddr, Handler: mux}
	go func() {
		svc.log.Info("api server listening", "addr", svc.cfg.HTTPAddr)
		if err := svc.apiSrv.ListenAndServe(); err != http.ErrServerClosed {
			svc.log.Error("api server error", "err", err)
		}
	}()
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var paramErr *indicator.InvalidParameterError
	var orderErr *series.UnorderedSeriesError
	switch {
	case errors.As(err, &paramErr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.As(err, &orderErr):
		// stored data broke the ordering contract; not the caller's fault
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

// seriesParams pulls the required symbol/interval pair plus the optional
// from/to bounds (RFC3339 or unix seconds).
func seriesParams(r *http.Request) (symbol string, interval model.Interval, from, to time.Time, err error) {
	q := r.URL.Query()
	symbol = q.Get("symbol")
	if symbol == "" {
		return "", "", time.Time{}, time.Time{}, errors.New("missing symbol")
	}
	interval, err = model.ParseInterval(q.Get("interval"))
	if err != nil {
		return "", "", time.Time{}, time.Time{}, err
	}
	if from, err = parseTime(q.Get("from")); err != nil {
		return "", "", time.Time{}, time.Time{}, err
	}
	if to, err = parseTime(q.Get("to")); err != nil {
		return "", "", time.Time{}, time.Time{}, err
	}
	return symbol, interval, from, to, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.New("invalid time " + strconv.Quote(s))
	}
	return t.UTC(), nil
}

func intParam(r *http.Request, name string, fallback int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("invalid " + name + " " + strconv.Quote(s))
	}
	return n, nil
}

func (svc *Service) fetch(r *http.Request) ([]model.Candle, error) {
	symbol, interval, from, to, err := seriesParams(r)
	if err != nil {
		return nil, err
	}
	return svc.sqlReader.FetchSeries(r.Context(), symbol, interval, from, to)
}

func (svc *Service) handleSeries(w http.ResponseWriter, r *http.Request) {
	keys, err := svc.sqlReader.ListSeriesKeys(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	type key struct {
		Symbol   string         `json:"symbol"`
		Interval model.Interval `json:"interval"`
	}
	out := make([]key, 0, len(keys))
	for _, k := range keys {
		out = append(out, key{Symbol: k.Symbol, Interval: k.Interval})
	}
	writeJSON(w, http.StatusOK, out)
}

func (svc *Service) handleCandles(w http.ResponseWriter, r *http.Request) {
	candles, err := svc.fetch(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if candles == nil {
		candles = []model.Candle{}
	}
	writeJSON(w, http.StatusOK, candles)
}

func (svc *Service) handleDaily(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	symbol := q.Get("symbol")
	interval, err := model.ParseInterval(q.Get("interval"))
	if symbol == "" || err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing or invalid symbol/interval"})
		return
	}

	// prefer the materialized table; recompute on the fly when it is empty
	buckets, err := svc.sqlReader.ReadDailyStats(r.Context(), symbol, interval)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(buckets) == 0 {
		candles, err := svc.sqlReader.FetchSeries(r.Context(), symbol, interval, time.Time{}, time.Time{})
		if err != nil {
			writeError(w, err)
			return
		}
		if buckets, err = aggregate.Daily(candles); err != nil {
			writeError(w, err)
			return
		}
	}
	if buckets == nil {
		buckets = []model.DailyBucket{}
	}
	writeJSON(w, http.StatusOK, buckets)
}

func (svc *Service) handleLatest(w http.ResponseWriter, r *http.Request) {
	if svc.cache == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "latest cache unavailable"})
		return
	}
	q := r.URL.Query()
	name := q.Get("name")
	symbol := q.Get("symbol")
	interval, err := model.ParseInterval(q.Get("interval"))
	if name == "" || symbol == "" || err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing or invalid name/symbol/interval"})
		return
	}

	p, err := svc.cache.GetLatest(r.Context(), name, symbol, interval)
	if err != nil {
		writeError(w, err)
		return
	}
	if p == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no cached value"})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleIndicator serves the single-valued indicators that take one period
// parameter.
func (svc *Service) handleIndicator(kind indicator.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		period, err := intParam(r, "period", 0)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		candles, err := svc.fetch(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		var points []indicator.Point
		switch kind {
		case indicator.KindSMA:
			points, err = indicator.SMA(candles, period)
		case indicator.KindEMA:
			points, err = indicator.EMA(candles, period)
		case indicator.KindRSI:
			points, err = indicator.RSI(candles, period)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		if points == nil {
			points = []indicator.Point{}
		}
		writeJSON(w, http.StatusOK, points)
	}
}

func (svc *Service) handleBollinger(w http.ResponseWriter, r *http.Request) {
	period, err := intParam(r, "period", indicator.DefaultBollingerPeriod)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	k := indicator.DefaultBollingerK
	if s := r.URL.Query().Get("k"); s != "" {
		if k, err = strconv.ParseFloat(s, 64); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid k " + strconv.Quote(s)})
			return
		}
	}

	candles, err := svc.fetch(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	bands, err := indicator.Bollinger(candles, period, k)
	if err != nil {
		writeError(w, err)
		return
	}
	if bands == nil {
		bands = []indicator.BandPoint{}
	}
	writeJSON(w, http.StatusOK, bands)
}

func (svc *Service) handleChange(w http.ResponseWriter, r *http.Request) {
	lag, err := intParam(r, "lag", indicator.DefaultChangeLag)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	candles, err := svc.fetch(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	changes, err := indicator.Change(candles, lag)
	if err != nil {
		writeError(w, err)
		return
	}
	if changes == nil {
		changes = []indicator.ChangePoint{}
	}
	writeJSON(w, http.StatusOK, changes)
}
