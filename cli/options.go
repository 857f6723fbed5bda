package cli

// Options are the command line flags of the authhttp command
type Options struct {
	URL        string `short:"u" long:"url" description:"api base url"`
	Refresh    string `long:"refresh-path" description:"refresh endpoint path relative to the base url"`
	ConfigURL  string `short:"c" long:"config" description:"client config file"`
	Email      string `short:"e" long:"email" description:"login email"`
	Password   string `short:"p" long:"password" description:"login password" env:"AUTHHTTP_PASSWORD"`
	Method     string `short:"X" long:"method" description:"http method" default:"GET"`
	Data       string `short:"d" long:"data" description:"JSON request body"`
	Store      string `short:"s" long:"store" description:"token store" choice:"memory" choice:"file" choice:"redis"`
	StoreURL   string `long:"store-url" description:"file store URL"`
	RedisAddr  string `long:"redis-addr" description:"redis store address"`
	Logout     bool   `long:"logout" description:"logout once done"`
	Verbose    bool   `short:"v" long:"verbose" description:"debug logging"`
	Positional struct {
		Path string `positional-arg-name:"path" description:"request path relative to the base url"`
	} `positional-args:"yes"`
}
