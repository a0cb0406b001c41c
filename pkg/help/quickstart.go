package help

const ConfigTemplate = `# plugindiff configuration
# Copy to config.yaml and adjust. A .env file and SMTP_*/PLUGINDIFF_*/
# SCHEDULE_* environment variables override the matching settings below.

sources:
  - name: weadown
    base_url: https://weadown.com
    category_path: /wordpress-plugins/
    strategy: classic
    selectors:
      containers:
        - "article[class*='post']"
        - "div.post-item"
        - "article"
      titles:
        - "h2.entry-title, h3.entry-title"
        - "h2.post-title, h3.post-title"
        - "h2, h3, h4"
      links:
        - "h2.entry-title a"
        - "a[href]"

  - name: pluginswp
    base_url: https://plugins-wp.online
    category_path: /categoria-producto/plugins/
    strategy: loadmore
    require_url: true
    selectors:
      containers:
        - "li.product"
        - "div.jet-listing-grid__item"
      titles:
        - "h2.woocommerce-loop-product__title"
        - "h2, h3"
      links:
        - "a.woocommerce-LoopProduct-link"
        - "a[href]"
    load_more:
      controls:
        - ".jet-listing-grid__load-more"
      url_template: "https://plugins-wp.online/categoria-producto/plugins/page/%d/"

pairs:
  - kind: plugins
    ref: weadown
    cand: pluginswp

workers: 4
max_pages: 5
max_loads: 5
delay_ms: 1000
threshold: 0.80
data_dir: data

database_path: data/plugindiff.db

server:
  addr: ":5000"

schedule:
  enabled: true
  cron: "0 9 * * *"

smtp:
  host: smtp.gmail.com
  port: 587
  # username, password, from, and to normally come from SMTP_* env vars
`

const QuickstartYAML = `# plugindiff Quick Start

strategies:
  classic: "Walks /page/N/ listing URLs (default)"
  loadmore: "Drives an AJAX load-more endpoint, falls back to classic probing"

commands:
  starter_config: |
    plugindiff quickstart --template > config.yaml

  crawl_one: |
    plugindiff crawl --source weadown

  crawl_all: |
    plugindiff crawl --all

  compare_catalogs: |
    plugindiff compare --ref data/weadown_catalog.csv --cand data/pluginswp_catalog.csv

  full_run: |
    plugindiff run

  list_runs: |
    plugindiff history runs

  run_details: |
    plugindiff history show 5

  serve_api: |
    plugindiff serve --addr :5000

key_files:
  - "config.yaml (sources, pairs, engine tuning, service settings)"
  - "data/<source>_catalog.csv (one row per crawled item)"
  - "data/<kind>_exact.csv / _similar.csv / _outdated.csv / _missing.csv (reports)"
  - "data/plugindiff.db (run history)"

run_system:
  - "Runs tracked in SQLite database"
  - "Auto-incrementing run IDs (1, 2, 3...)"
  - "Use 'plugindiff history runs' to list all runs"
  - "Use 'plugindiff history show <id>' for details"
  - "'plugindiff history show' with no ID shows the latest run"

classifications:
  EXACT: "Identical normalized names (100%)"
  SIMILAR: "Similarity at or above the threshold (default 0.80)"
  MISSING: "No candidate reached the threshold"

freshness:
  UPDATED: "Reference version is ahead of the candidate"
  OUTDATED: "Reference version is behind the candidate"
  SAME: "Versions are equal"
  UNKNOWN: "One side has no parseable version"

error_behavior:
  - "Broken base_url: fail fast before crawling"
  - "Unreachable source with --all: reported per source, others continue"
  - "Exit codes: 0=success, 1=usage or partial failure, 2=infrastructure failure"
`
