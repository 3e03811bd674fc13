package catalog

var videoTitles = []string{
	"React Hooks Tutorial - Complete Guide",
	"JavaScript ES6 Features You Must Know",
	"Building Modern Web Apps with TypeScript",
	"CSS Grid vs Flexbox - When to Use What?",
	"Node.js Best Practices for Beginners",
	"Python Machine Learning Crash Course",
	"Docker for Developers - Complete Tutorial",
	"Git and GitHub Masterclass",
	"MongoDB Database Design Patterns",
	"Next.js 14 - What's New and Amazing",
	"Vue.js 3 Composition API Deep Dive",
	"AWS Cloud Architecture Fundamentals",
	"Tailwind CSS Tips and Tricks",
	"Redux Toolkit - State Management Made Easy",
	"Express.js REST API Development",
	"Angular 17 - New Features Overview",
	"GraphQL with Apollo Client Tutorial",
	"PostgreSQL Advanced Queries",
	"Kubernetes for Beginners",
	"React Native Mobile App Development",
	"Web Performance Optimization Techniques",
	"DevOps Pipeline with CI/CD",
	"Microservices Architecture Explained",
	"Socket.io Real-time Applications",
	"Electron Desktop App Development",
	"WebAssembly - Future of Web Performance",
	"Svelte vs React - Performance Comparison",
	"Firebase Authentication Tutorial",
	"Stripe Payment Integration Guide",
	"Three.js 3D Web Development",
}

var channelNames = []string{
	"Code Academy Pro",
	"Dev Masters",
	"Tech Tutorials",
	"Programming Hub",
	"Web Dev Simplified",
	"JavaScript Mastery",
	"React Expert",
	"Full Stack Journey",
	"Code with Mosh",
	"The Net Ninja",
	"Traversy Media",
	"Academind",
	"FreeCodeCamp",
	"Programming with Mosh",
	"Coding Garden",
}

var uploadTimes = []string{
	"2 hours ago", "5 hours ago", "12 hours ago",
	"1 day ago", "2 days ago", "3 days ago", "4 days ago", "5 days ago", "6 days ago",
	"1 week ago", "2 weeks ago", "3 weeks ago",
	"1 month ago", "2 months ago", "3 months ago", "4 months ago", "5 months ago", "6 months ago",
	"7 months ago", "8 months ago", "9 months ago", "10 months ago", "11 months ago",
	"1 year ago",
}

var videoDescriptions = []string{
	"In this comprehensive tutorial, we'll dive deep into the fundamentals and advanced concepts. " +
		"Perfect for beginners and experienced developers alike!\n\n" +
		"Resources mentioned:\n- Official documentation\n- GitHub repository\n- Community Discord\n\n" +
		"Timestamps:\n0:00 Introduction\n2:30 Setup\n5:15 Basic concepts\n12:45 Advanced techniques\n" +
		"18:20 Best practices\n25:10 Conclusion\n\nDon't forget to like and subscribe for more content!",
	"Learn everything you need to know in this step-by-step guide. " +
		"We'll cover all the essential topics with practical examples.\n\n" +
		"Useful Links:\n- Project files\n- Additional resources\n- Follow-up tutorials\n\n" +
		"What you'll learn:\n- Core concepts\n- Practical applications\n- Common pitfalls to avoid\n- Pro tips and tricks\n\n" +
		"Subscribe and hit the bell icon for notifications!",
	"Master these concepts with this detailed walkthrough. Includes downloadable resources and code examples.\n\n" +
		"Who this is for:\n- Beginners looking to learn\n- Developers wanting to improve\n- Anyone interested in the topic\n\n" +
		"Note: Make sure to practice along with the video for the best learning experience.\n\n" +
		"Let me know in the comments if you have any questions!",
}

const sampleVideoBase = "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/"

var sampleVideoURLs = []string{
	sampleVideoBase + "BigBuckBunny.mp4",
	sampleVideoBase + "ElephantsDream.mp4",
	sampleVideoBase + "ForBiggerBlazes.mp4",
	sampleVideoBase + "ForBiggerEscapes.mp4",
	sampleVideoBase + "ForBiggerFun.mp4",
	sampleVideoBase + "ForBiggerJoyrides.mp4",
	sampleVideoBase + "ForBiggerMeltdowns.mp4",
	sampleVideoBase + "Sintel.mp4",
	sampleVideoBase + "SubaruOutbackOnStreetAndDirt.mp4",
	sampleVideoBase + "TearsOfSteel.mp4",
}

var highlightURLs = []string{
	sampleVideoBase + "BigBuckBunny.mp4",
	sampleVideoBase + "ElephantsDream.mp4",
	sampleVideoBase + "ForBiggerBlazes.mp4",
	sampleVideoBase + "ForBiggerEscapes.mp4",
	sampleVideoBase + "ForBiggerFun.mp4",
	sampleVideoBase + "ForBiggerJoyrides.mp4",
	sampleVideoBase + "Sintel.mp4",
	sampleVideoBase + "TearsOfSteel.mp4",
}

var sampleComments = []string{
	"Great tutorial! This really helped me understand the concepts better.",
	"Thanks for the clear explanation. Could you make a follow-up video?",
	"This is exactly what I was looking for. Subscribed!",
	"Amazing content as always. Keep up the good work!",
	"I have a question about the implementation in minute 5:30",
	"Perfect timing! I was just working on a similar project.",
	"The examples you showed were very practical and useful.",
	"Could you please create a video about advanced topics next?",
	"This solved my problem instantly. Thank you so much!",
	"Very well explained. Easy to follow along.",
}

var summaries = []string{
	"This comprehensive tutorial covers React hooks in detail, starting with useState and useEffect. " +
		"The instructor demonstrates practical examples of state management, side effects, and custom hooks. " +
		"Key topics include hook rules, dependency arrays, and performance optimization techniques.",
	"In this JavaScript ES6 features overview, we explore arrow functions, destructuring, template literals, " +
		"and the spread operator. Advanced topics include async/await, promises, and module imports/exports.",
	"This web development guide walks through building modern applications with TypeScript. " +
		"Starting with basic types and interfaces, the tutorial progresses to generics, union types, and type guards.",
	"Learn CSS Grid and Flexbox layout systems in this detailed comparison. " +
		"Key concepts include grid template areas, flexible box properties, and combining both systems for complex layouts.",
	"This Node.js best practices guide covers project structure, error handling, and performance optimization. " +
		"Advanced topics include clustering, logging strategies, and deployment considerations for production.",
}

var defaultTags = []string{"tutorial", "programming", "web development", "coding"}
