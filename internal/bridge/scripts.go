// Package bridge implements the native side of the message channel between
// the hosted chat page and the host application.
package bridge

// HandlerName is the message handler the page posts to
// (window.webkit.messageHandlers.nativeApp).
const HandlerName = "nativeApp"

// HandshakeScript is injected at document end and announces that the
// injected scripts are installed.
const HandshakeScript = `    window.webkit.messageHandlers.nativeApp.postMessage({"info":"setupScripts"});`

// ListenerScript subscribes to the widget lifecycle events once the page's
// HubSpotConversations object exists, using the page's own
// hsConversationsOnReady queue, and forwards each event payload.
const ListenerScript = `function configureHubspotConversations() {
    if (window.HubSpotConversations) {
        window.webkit.messageHandlers.nativeApp.postMessage({ "info": "Setting up handlers" });
        window.HubSpotConversations.on('conversationStarted', payload => {
            window.webkit.messageHandlers.nativeApp.postMessage(payload);
        });

        window.HubSpotConversations.on('widgetLoaded', payload => {
            window.webkit.messageHandlers.nativeApp.postMessage(payload);
        });

        window.HubSpotConversations.on('userInteractedWithWidget', payload => {
            window.webkit.messageHandlers.nativeApp.postMessage(payload);
        });

        window.HubSpotConversations.on('userSelectedThread', payload => {
            window.webkit.messageHandlers.nativeApp.postMessage(payload);
        });

        window.webkit.messageHandlers.nativeApp.postMessage({ "info": "Finished setting up handlers" });
    } else {
        window.webkit.messageHandlers.nativeApp.postMessage({ "info": "no object to set handlers on still" });
    }
}

window.webkit.messageHandlers.nativeApp.postMessage({ "info": "starting main load script" });

if (window.HubSpotConversations) {
    configureHubspotConversations();
} else if (Array.isArray(window.hsConversationsOnReady)) {
    window.hsConversationsOnReady.push(configureHubspotConversations);
} else {
    window.hsConversationsOnReady = [configureHubspotConversations];
}

window.webkit.messageHandlers.nativeApp.postMessage({ "info": "finished main load script" });`

// Scripts returns the scripts to inject after page load, in order.
func Scripts() []string {
	return []string{HandshakeScript, ListenerScript}
}
