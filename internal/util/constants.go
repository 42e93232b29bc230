package util

const (
	ArchiveLocal = "local"
	ArchiveMinio = "minio"
	ArchiveOSS   = "oss"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// 本地键值存储中的逻辑键
const (
	ProgressKeyPrefix = "course_progress_"
	CertificatesKey   = "user_certificates"
	EnrollmentKey     = "enrolled_courses"
	UserKey           = "educado_user"
	DeviceIDKey       = "device_id"
	LanguageKey       = "language"
	CatalogKey        = "course_catalog"
	CatalogKeyPrefix  = "course_catalog_"
)

// 证书未设置姓名时的默认显示
const DefaultLearnerName = "Learner"

const MimeJSON = "application/json"
