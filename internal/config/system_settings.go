package config

import (
	"os"
	"strconv"
)

const DATABASE_TYPE = "LEADFLOW_DATABASE_TYPE"
const DATABASE_URL = "LEADFLOW_DATABASE_URL"
const DATABASE_SQLLITE_FILE_NAME = "LEADFLOW_DATABASE_SQLLITE_FILE_NAME"
const SERVER_HTTP_PORT = "LEADFLOW_SERVER_HTTP_PORT"
const WEB_SESSION_EXPIRY_HOURS = "LEADFLOW_WEB_SESSION_EXPIRY_HOURS"
const ADMIN_PASSWORD = "LEADFLOW_ADMIN_PASSWORD" //seed password for the admin user on first boot
const VIDEO_DIR = "LEADFLOW_VIDEO_DIR"
const WORKSPACE_FILE = "LEADFLOW_WORKSPACE_FILE"
const WEBHOOK_URL = "LEADFLOW_WEBHOOK_URL"
const WEBHOOK_TIMEOUT = "LEADFLOW_WEBHOOK_TIMEOUT"
const WEBHOOK_RETRIES = "LEADFLOW_WEBHOOK_RETRIES"
const WEBHOOK_RETRY_DELAY = "LEADFLOW_WEBHOOK_RETRY_DELAY"
const WEBHOOK_CACHE_TTL = "LEADFLOW_WEBHOOK_CACHE_TTL" //how long a fetched payload is served without hitting the feed again
const RUNNER_WORKERS = "LEADFLOW_RUNNER_WORKERS"       //number of workers consuming the run queue
const RUNNER_PORT_WAIT_TIMEOUT = "LEADFLOW_RUNNER_PORT_WAIT_TIMEOUT"
const RUNNER_QUEUE_SIZE = "LEADFLOW_RUNNER_QUEUE_SIZE"
const RUNNER_STALE_RUNS_REPAIR_AFTER_MINUTES = "LEADFLOW_RUNNER_STALE_RUNS_REPAIR_AFTER_MINUTES"
const EXECUTOR_NAME = "LEADFLOW_EXECUTOR_NAME"

const DATABASE_TYPE_POSTGRES = "POSTGRES"
const DATABASE_TYPE_MYSQL = "MYSQL"
const DATABASE_TYPE_SQLLITE = "SQLLITE"

func GetSystemSettingInteger(settingKey string) int {
	val := GetSystemSettingString(settingKey)
	if val != "" {
		intValue, _ := strconv.Atoi(val)
		return intValue
	}

	return 0
}

func GetSystemSettingString(settingKey string) string {
	val := os.Getenv(settingKey)
	if val != "" {
		return val
	}
	if settingKey == SERVER_HTTP_PORT {
		return "5000"
	}
	if settingKey == WEB_SESSION_EXPIRY_HOURS {
		return "1"
	}
	if settingKey == ADMIN_PASSWORD {
		return "admin_password"
	}
	if settingKey == VIDEO_DIR {
		return "./static/videos"
	}
	if settingKey == WORKSPACE_FILE {
		return "workspace.yml"
	}
	if settingKey == WEBHOOK_URL {
		return "https://public-webhook-receiver-juy917.replit.app/get_webhooks"
	}
	if settingKey == WEBHOOK_TIMEOUT {
		return "30s"
	}
	if settingKey == WEBHOOK_RETRIES {
		return "3"
	}
	if settingKey == WEBHOOK_RETRY_DELAY {
		return "1s" // grows per attempt, see webhook.Client
	}
	if settingKey == WEBHOOK_CACHE_TTL {
		return "5s"
	}
	if settingKey == RUNNER_WORKERS {
		return "5"
	}
	if settingKey == RUNNER_PORT_WAIT_TIMEOUT {
		return "60s"
	}
	if settingKey == RUNNER_QUEUE_SIZE {
		return "10"
	}
	if settingKey == RUNNER_STALE_RUNS_REPAIR_AFTER_MINUTES {
		return "5"
	}
	if settingKey == DATABASE_SQLLITE_FILE_NAME {
		return "./leadflow.db"
	}
	return ""
}
