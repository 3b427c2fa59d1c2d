package directory

// Site is a curated popular domain and its display name.
type Site struct {
	Domain string
	Name   string
}

// sites is the curated table. Order matters only as the tie-breaker for
// equal fuzzy scores.
var sites = []Site{
	{"google.com", "Google"},
	{"youtube.com", "YouTube"},
	{"facebook.com", "Facebook"},
	{"instagram.com", "Instagram"},
	{"twitter.com", "Twitter"},
	{"x.com", "X"},
	{"linkedin.com", "LinkedIn"},
	{"reddit.com", "Reddit"},
	{"wikipedia.org", "Wikipedia"},
	{"amazon.com", "Amazon"},
	{"ebay.com", "eBay"},
	{"netflix.com", "Netflix"},
	{"spotify.com", "Spotify"},
	{"twitch.tv", "Twitch"},
	{"tiktok.com", "TikTok"},
	{"pinterest.com", "Pinterest"},
	{"tumblr.com", "Tumblr"},
	{"github.com", "GitHub"},
	{"gitlab.com", "GitLab"},
	{"bitbucket.org", "Bitbucket"},
	{"stackoverflow.com", "Stack Overflow"},
	{"news.ycombinator.com", "Hacker News"},
	{"medium.com", "Medium"},
	{"substack.com", "Substack"},
	{"dev.to", "DEV Community"},
	{"go.dev", "Go"},
	{"pkg.go.dev", "Go Packages"},
	{"npmjs.com", "npm"},
	{"pypi.org", "PyPI"},
	{"crates.io", "crates.io"},
	{"docker.com", "Docker"},
	{"hub.docker.com", "Docker Hub"},
	{"kubernetes.io", "Kubernetes"},
	{"vercel.com", "Vercel"},
	{"netlify.com", "Netlify"},
	{"heroku.com", "Heroku"},
	{"cloudflare.com", "Cloudflare"},
	{"aws.amazon.com", "AWS"},
	{"console.cloud.google.com", "Google Cloud Console"},
	{"portal.azure.com", "Azure Portal"},
	{"digitalocean.com", "DigitalOcean"},
	{"figma.com", "Figma"},
	{"canva.com", "Canva"},
	{"dribbble.com", "Dribbble"},
	{"behance.net", "Behance"},
	{"notion.so", "Notion"},
	{"trello.com", "Trello"},
	{"asana.com", "Asana"},
	{"linear.app", "Linear"},
	{"atlassian.com", "Atlassian"},
	{"jira.atlassian.com", "Jira"},
	{"slack.com", "Slack"},
	{"discord.com", "Discord"},
	{"zoom.us", "Zoom"},
	{"teams.microsoft.com", "Microsoft Teams"},
	{"mail.google.com", "Gmail"},
	{"calendar.google.com", "Google Calendar"},
	{"drive.google.com", "Google Drive"},
	{"docs.google.com", "Google Docs"},
	{"maps.google.com", "Google Maps"},
	{"outlook.com", "Outlook"},
	{"office.com", "Microsoft 365"},
	{"microsoft.com", "Microsoft"},
	{"apple.com", "Apple"},
	{"icloud.com", "iCloud"},
	{"dropbox.com", "Dropbox"},
	{"box.com", "Box"},
	{"salesforce.com", "Salesforce"},
	{"hubspot.com", "HubSpot"},
	{"shopify.com", "Shopify"},
	{"squarespace.com", "Squarespace"},
	{"wix.com", "Wix"},
	{"wordpress.com", "WordPress"},
	{"webflow.com", "Webflow"},
	{"stripe.com", "Stripe"},
	{"paypal.com", "PayPal"},
	{"airbnb.com", "Airbnb"},
	{"booking.com", "Booking.com"},
	{"uber.com", "Uber"},
	{"nytimes.com", "The New York Times"},
	{"theguardian.com", "The Guardian"},
	{"bbc.com", "BBC"},
	{"cnn.com", "CNN"},
	{"espn.com", "ESPN"},
	{"weather.com", "The Weather Channel"},
	{"imdb.com", "IMDb"},
	{"duckduckgo.com", "DuckDuckGo"},
	{"bing.com", "Bing"},
	{"openai.com", "OpenAI"},
	{"chatgpt.com", "ChatGPT"},
	{"claude.ai", "Claude"},
	{"anthropic.com", "Anthropic"},
	{"perplexity.ai", "Perplexity"},
	{"huggingface.co", "Hugging Face"},
	{"arxiv.org", "arXiv"},
	{"developer.mozilla.org", "MDN Web Docs"},
	{"tailwindcss.com", "Tailwind CSS"},
	{"react.dev", "React"},
	{"vuejs.org", "Vue.js"},
	{"svelte.dev", "Svelte"},
}
