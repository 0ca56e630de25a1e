package constants

const AppVersion = "1.0.0"

// Environment Types
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Cache Key Prefixes
const (
	CacheKeyPrefix = "content:"
	CacheKeyList   = CacheKeyPrefix + "list:"
)

// Entity table names, also used as list cache namespaces
const (
	EntityBlogs    = "blogs"
	EntityPosts    = "posts"
	EntityProducts = "products"
)
