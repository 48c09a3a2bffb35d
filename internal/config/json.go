package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig is the on-disk JSON layout of [StructuredConfig].
type StructuredJSONConfig struct {
	Homeserver struct {
		URL            string   `json:"url"`
		AccessToken    string   `json:"access_token"`
		UserID         string   `json:"user_id"`
		DeviceID       string   `json:"device_id"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"homeserver,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`
	} `json:"storage,omitempty"`

	Crypto struct {
		DisableKeyGossiping                      bool     `json:"disable_key_gossiping"`
		LimitRoomKeyRequestsToMyDevices          bool     `json:"limit_room_key_requests_to_my_devices"`
		DiscardForwardedKeysFromUntrustedDevices bool     `json:"discard_forwarded_keys_from_untrusted_devices"`
		BackupRetryWindow                        Duration `json:"backup_retry_window"`
		RequestRetryCount                        int      `json:"request_retry_count"`
		MaxBackupCallsPerSync                    int      `json:"max_backup_calls_per_sync"`
		SessionCacheCapacity                     int      `json:"session_cache_capacity"`
		SessionFlushDelay                        Duration `json:"session_flush_delay"`
	} `json:"crypto,omitempty"`

	Workers struct {
		SyncTimeout    Duration `json:"sync_timeout"`
		SyncRetryDelay Duration `json:"sync_retry_delay"`
	} `json:"workers,omitempty"`

	Metrics struct {
		Address string `json:"address"`
	} `json:"metrics,omitempty"`

	Log struct {
		FilePath string `json:"file_path"`
	} `json:"log,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		Homeserver: Homeserver{
			URL:            jsonCfg.Homeserver.URL,
			AccessToken:    jsonCfg.Homeserver.AccessToken,
			UserID:         jsonCfg.Homeserver.UserID,
			DeviceID:       jsonCfg.Homeserver.DeviceID,
			RequestTimeout: time.Duration(jsonCfg.Homeserver.RequestTimeout),
		},
		Storage: Storage{
			DB: DB{DSN: jsonCfg.Storage.DB.DSN},
		},
		Crypto: Crypto{
			DisableKeyGossiping:                      jsonCfg.Crypto.DisableKeyGossiping,
			LimitRoomKeyRequestsToMyDevices:          jsonCfg.Crypto.LimitRoomKeyRequestsToMyDevices,
			DiscardForwardedKeysFromUntrustedDevices: jsonCfg.Crypto.DiscardForwardedKeysFromUntrustedDevices,
			BackupRetryWindow:                        time.Duration(jsonCfg.Crypto.BackupRetryWindow),
			RequestRetryCount:                        jsonCfg.Crypto.RequestRetryCount,
			MaxBackupCallsPerSync:                    jsonCfg.Crypto.MaxBackupCallsPerSync,
			SessionCacheCapacity:                     jsonCfg.Crypto.SessionCacheCapacity,
			SessionFlushDelay:                        time.Duration(jsonCfg.Crypto.SessionFlushDelay),
		},
		Workers: Workers{
			SyncTimeout:    time.Duration(jsonCfg.Workers.SyncTimeout),
			SyncRetryDelay: time.Duration(jsonCfg.Workers.SyncRetryDelay),
		},
		Metrics:      Metrics{Address: jsonCfg.Metrics.Address},
		Log:          Log{FilePath: jsonCfg.Log.FilePath},
		JSONFilePath: "",
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
