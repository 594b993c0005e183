// Package export writes club data as Parquet files.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/ifitclub/clubstats/internal/club"
	"github.com/ifitclub/clubstats/internal/stats"
)

const writeParallelism = 4

type leaderboardRow struct {
	Period                   string  `parquet:"name=period, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	ActivityType             string  `parquet:"name=activity_type, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	GeneratedAt              string  `parquet:"name=generated_at, type=BYTE_ARRAY, convertedtype=UTF8"`
	Rank                     int32   `parquet:"name=rank, type=INT32"`
	AthleteID                int64   `parquet:"name=athlete_id, type=INT64"`
	DisplayName              string  `parquet:"name=display_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	City                     string  `parquet:"name=city, type=BYTE_ARRAY, convertedtype=UTF8"`
	TotalDistanceKm          float64 `parquet:"name=total_distance_km, type=DOUBLE"`
	TotalTimeMinutes         int64   `parquet:"name=total_time_minutes, type=INT64"`
	TotalElevationGainMeters int64   `parquet:"name=total_elevation_gain_meters, type=INT64"`
	CaloriesBurned           int64   `parquet:"name=calories_burned, type=INT64"`
	ActivityCount            int32   `parquet:"name=activity_count, type=INT32"`
	WorkoutDays              int32   `parquet:"name=workout_days, type=INT32"`
	Score                    float64 `parquet:"name=score, type=DOUBLE"`
}

type activityRow struct {
	ID                  int64    `parquet:"name=id, type=INT64"`
	AthleteID           int64    `parquet:"name=athlete_id, type=INT64"`
	Name                string   `parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Type                string   `parquet:"name=type, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	SportType           string   `parquet:"name=sport_type, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	StartUTC            string   `parquet:"name=start_utc, type=BYTE_ARRAY, convertedtype=UTF8"`
	StartLocal          string   `parquet:"name=start_local, type=BYTE_ARRAY, convertedtype=UTF8"`
	DistanceM           float64  `parquet:"name=distance_m, type=DOUBLE"`
	MovingTimeS         int64    `parquet:"name=moving_time_s, type=INT64"`
	ElapsedTimeS        int64    `parquet:"name=elapsed_time_s, type=INT64"`
	ElevationGainM      float64  `parquet:"name=elevation_gain_m, type=DOUBLE"`
	AverageSpeedMPS     *float64 `parquet:"name=average_speed_mps, type=DOUBLE, repetitiontype=OPTIONAL"`
	MaxSpeedMPS         *float64 `parquet:"name=max_speed_mps, type=DOUBLE, repetitiontype=OPTIONAL"`
	AverageHeartrateBPM *float64 `parquet:"name=average_heartrate_bpm, type=DOUBLE, repetitiontype=OPTIONAL"`
	MaxHeartrateBPM     *float64 `parquet:"name=max_heartrate_bpm, type=DOUBLE, repetitiontype=OPTIONAL"`
	Calories            *float64 `parquet:"name=calories, type=DOUBLE, repetitiontype=OPTIONAL"`
	KudosCount          int64    `parquet:"name=kudos_count, type=INT64"`
}

func toLeaderboardRows(board club.Leaderboard) []leaderboardRow {
	rows := make([]leaderboardRow, 0, len(board.Entries))
	generated := board.GeneratedAt.Format(time.RFC3339)
	for _, e := range board.Entries {
		rows = append(rows, leaderboardRow{
			Period:                   string(board.Period),
			ActivityType:             board.ActivityType,
			GeneratedAt:              generated,
			Rank:                     int32(e.Rank),
			AthleteID:                e.AthleteID,
			DisplayName:              e.DisplayName,
			City:                     e.City,
			TotalDistanceKm:          e.TotalDistanceKm,
			TotalTimeMinutes:         e.TotalTimeMinutes,
			TotalElevationGainMeters: e.TotalElevationGainMeters,
			CaloriesBurned:           e.CaloriesBurned,
			ActivityCount:            int32(e.ActivityCount),
			WorkoutDays:              int32(e.WorkoutDays),
			Score:                    e.Score,
		})
	}
	return rows
}

func toActivityRows(activities []stats.Activity) []activityRow {
	rows := make([]activityRow, 0, len(activities))
	for _, a := range activities {
		rows = append(rows, activityRow{
			ID:                  a.ID,
			AthleteID:           a.AthleteID,
			Name:                a.Name,
			Type:                a.Type,
			SportType:           a.SportType,
			StartUTC:            a.StartTime.UTC().Format(time.RFC3339),
			StartLocal:          a.StartTimeLocal.Format("2006-01-02T15:04:05"),
			DistanceM:           a.DistanceMeters,
			MovingTimeS:         a.MovingTimeSeconds,
			ElapsedTimeS:        a.ElapsedTimeSeconds,
			ElevationGainM:      a.ElevationGainMeters,
			AverageSpeedMPS:     a.AverageSpeed,
			MaxSpeedMPS:         a.MaxSpeed,
			AverageHeartrateBPM: a.AverageHeartrate,
			MaxHeartrateBPM:     a.MaxHeartrate,
			Calories:            a.Calories,
			KudosCount:          a.KudosCount,
		})
	}
	return rows
}

func writeRows[T any](fw source.ParquetFile, rows []T) error {
	pw, err := writer.NewParquetWriter(fw, new(T), writeParallelism)
	if err != nil {
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return err
		}
	}
	return pw.WriteStop()
}

func marshal[T any](rows []T) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	if err := writeRows(fw, rows); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}

// MarshalLeaderboard encodes board as a Parquet file, one row per entry.
func MarshalLeaderboard(board club.Leaderboard) ([]byte, error) {
	return marshal(toLeaderboardRows(board))
}

// MarshalActivities encodes activities as a Parquet file.
func MarshalActivities(activities []stats.Activity) ([]byte, error) {
	return marshal(toActivityRows(activities))
}

func writeFile[T any](path string, rows []T) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := writeRows(fw, rows); err != nil {
		_ = fw.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return fw.Close()
}

// LeaderboardSource produces club leaderboards.
type LeaderboardSource interface {
	Leaderboard(ctx context.Context, period, typeFilter string) (club.Leaderboard, error)
}

// ActivitySource lists every stored activity.
type ActivitySource interface {
	ListAllActivities(ctx context.Context) ([]stats.Activity, error)
}

// Result describes the files written by Export.
type Result struct {
	LeaderboardPath string `json:"leaderboard_path"`
	LeaderboardRows int    `json:"leaderboard_rows"`
	ActivitiesPath  string `json:"activities_path"`
	ActivityRows    int    `json:"activity_rows"`
}

// Exporter writes the leaderboard and activity tables into a directory.
type Exporter struct {
	boards     LeaderboardSource
	activities ActivitySource
	log        zerolog.Logger
}

// NewExporter creates an exporter.
func NewExporter(boards LeaderboardSource, activities ActivitySource, log zerolog.Logger) *Exporter {
	return &Exporter{
		boards:     boards,
		activities: activities,
		log:        log.With().Str("component", "export").Logger(),
	}
}

// Export writes leaderboard_<period>.parquet and activities.parquet to dir,
// creating it when missing.
func (e *Exporter) Export(ctx context.Context, dir, period, typeFilter string) (Result, error) {
	board, err := e.boards.Leaderboard(ctx, period, typeFilter)
	if err != nil {
		return Result{}, err
	}
	activities, err := e.activities.ListAllActivities(ctx)
	if err != nil {
		return Result{}, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("creating export dir: %w", err)
	}

	res := Result{
		LeaderboardPath: filepath.Join(dir, fmt.Sprintf("leaderboard_%s.parquet", board.Period)),
		LeaderboardRows: len(board.Entries),
		ActivitiesPath:  filepath.Join(dir, "activities.parquet"),
		ActivityRows:    len(activities),
	}
	if err := writeFile(res.LeaderboardPath, toLeaderboardRows(board)); err != nil {
		return Result{}, err
	}
	if err := writeFile(res.ActivitiesPath, toActivityRows(activities)); err != nil {
		return Result{}, err
	}

	e.log.Info().
		Str("dir", dir).
		Int("leaderboard_rows", res.LeaderboardRows).
		Int("activity_rows", res.ActivityRows).
		Msg("export written")
	return res, nil
}
