package config

import "fmt"

func DefaultTemplate() string {
	defaults := DefaultConfig()
	return fmt.Sprintf(`version: 1
progress:
  # width of the bar in cells, the caption and counters come on top
  width: %d
  # default | simple | graphic
  style: %q
  # default | short | simple | status | status-simple | infinite-simple,
  # or a literal template such as "{begin_line}{text} {percents_done:>3}%%"
  template: %q
  hide_on_finish: false

http:
  timeout_seconds: %d
  use_gzip: true
  concurrency: %d
  headers:
    Accept: "application/json, text/plain, */*"
  # auth:
  #   user: "me"
  #   password: "secret"
  #   force: false
`, defaults.Progress.Width, defaults.Progress.Style, defaults.Progress.Template,
		defaults.HTTP.TimeoutSeconds, defaults.HTTP.Concurrency)
}
